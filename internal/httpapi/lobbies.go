package httpapi

import (
	"github.com/valyala/fasthttp"

	"github.com/park285/oh-my-chess/internal/lobby"
	"github.com/park285/oh-my-chess/pkg/chessdto"
)

func (s *Server) handleMakeLobby(rc *fasthttp.RequestCtx) {
	userID, ok := s.caller(rc)
	if !ok {
		return
	}
	var req chessdto.MakeLobbyRequest
	if !s.decode(rc, &req) {
		return
	}
	ctx, cancel := s.reqCtx()
	defer cancel()
	res, err := s.d.Lobbies.Make(ctx, userID, req.Name)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusCreated, lobbyView(res.Meta))
}

func (s *Server) handleListLobbies(rc *fasthttp.RequestCtx) {
	ctx, cancel := s.reqCtx()
	defer cancel()
	metas, err := s.d.Lobbies.ListLobby(ctx)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	out := chessdto.LobbyListResponse{Lobbies: make([]chessdto.LobbyView, 0, len(metas))}
	for _, m := range metas {
		out.Lobbies = append(out.Lobbies, lobbyView(m))
	}
	writeJSON(rc, fasthttp.StatusOK, out)
}

func (s *Server) handleJoinLobby(rc *fasthttp.RequestCtx, code string) {
	userID, ok := s.caller(rc)
	if !ok {
		return
	}
	var req chessdto.JoinLobbyRequest
	if !s.decode(rc, &req) {
		return
	}
	ctx, cancel := s.reqCtx()
	defer cancel()
	res, err := s.d.Lobbies.Join(ctx, code, userID, req.Name)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	out := chessdto.JoinLobbyResponse{Started: res.Started, Lobby: lobbyView(res.Meta)}
	if res.MatchID != "" {
		g, err := s.d.Matches.Get(ctx, res.MatchID)
		if err != nil {
			s.writeErr(rc, err)
			return
		}
		out.Match = s.view(g)
	}
	writeJSON(rc, fasthttp.StatusOK, out)
}

func lobbyView(m *lobby.Meta) chessdto.LobbyView {
	if m == nil {
		return chessdto.LobbyView{}
	}
	return chessdto.LobbyView{
		Code:        m.Code,
		State:       string(m.State),
		CreatorID:   m.CreatorID,
		CreatorName: m.CreatorName,
		MatchID:     m.MatchID,
		CreatedAt:   m.CreatedAt,
	}
}
