package httpapi

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/park285/oh-my-chess/internal/match"
	"github.com/park285/oh-my-chess/internal/rules"
	"github.com/park285/oh-my-chess/pkg/chessdto"
)

func (s *Server) handleCreateMatch(rc *fasthttp.RequestCtx) {
	userID, ok := s.caller(rc)
	if !ok {
		return
	}
	var req chessdto.CreateMatchRequest
	if !s.decode(rc, &req) {
		return
	}
	ctx, cancel := s.reqCtx()
	defer cancel()

	whiteID, whiteName := userID, req.Name
	blackID, blackName := req.OpponentID, req.OpponentName
	color, ok := match.ParseColorChoice(req.Color)
	if !ok {
		s.writeErr(rc, match.ErrInvalidArgs)
		return
	}
	swap := color == match.ColorBlack
	if color == match.ColorRandom {
		n, err := rand.Int(rand.Reader, big.NewInt(2))
		swap = err == nil && n.Int64() == 1
	}
	if swap {
		whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
	}

	g, err := s.d.Matches.Create(ctx, whiteID, whiteName, blackID, blackName)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusCreated, s.view(g))
}

func (s *Server) handleGetMatch(rc *fasthttp.RequestCtx, id string) {
	ctx, cancel := s.reqCtx()
	defer cancel()
	g, err := s.d.Matches.Get(ctx, id)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, s.view(g))
}

func (s *Server) handleLegalMoves(rc *fasthttp.RequestCtx, id string) {
	ctx, cancel := s.reqCtx()
	defer cancel()
	g, err := s.d.Matches.Get(ctx, id)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	moves, err := s.d.Matches.LegalMoves(ctx, id)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	if moves == nil {
		moves = []string{}
	}
	writeJSON(rc, fasthttp.StatusOK, chessdto.LegalMovesResponse{
		MatchID: g.ID,
		Turn:    g.State.Turn.String(),
		Moves:   moves,
	})
}

func (s *Server) handleMove(rc *fasthttp.RequestCtx, id string) {
	userID, ok := s.caller(rc)
	if !ok {
		return
	}
	var req chessdto.MoveRequest
	if !s.decode(rc, &req) {
		return
	}
	mv, err := moveFrom(req)
	if err != nil {
		s.writeCode(rc, fasthttp.StatusBadRequest, "bad_request", map[string]any{"Detail": err.Error()}, err.Error())
		return
	}
	ctx, cancel := s.reqCtx()
	defer cancel()

	g, err := s.d.Matches.PlayMove(ctx, id, userID, mv)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	resp := chessdto.MoveResponse{Match: s.view(g)}
	if n := len(g.MovesSAN); n > 0 {
		resp.SAN = g.MovesSAN[n-1]
	}
	resp.Summary = resp.Match.Summary
	writeJSON(rc, fasthttp.StatusOK, resp)
}

// moveFrom accepts coordinate notation or raw squares. Raw squares may be off the board;
// the rules engine rejects those with out_of_bounds.
func moveFrom(req chessdto.MoveRequest) (rules.ChessMove, error) {
	if req.From != nil && req.To != nil {
		return rules.ChessMove{
			From: rules.Sq(req.From.Rank, req.From.File),
			To:   rules.Sq(req.To.Rank, req.To.File),
		}, nil
	}
	return rules.ParseMove(req.Move)
}

func (s *Server) handleResign(rc *fasthttp.RequestCtx, id string) {
	userID, ok := s.caller(rc)
	if !ok {
		return
	}
	ctx, cancel := s.reqCtx()
	defer cancel()
	g, err := s.d.Matches.Resign(ctx, id, userID)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, s.view(g))
}

func (s *Server) handleDraw(rc *fasthttp.RequestCtx, id string) {
	userID, ok := s.caller(rc)
	if !ok {
		return
	}
	var req chessdto.DrawRequest
	if !s.decode(rc, &req) {
		return
	}
	ctx, cancel := s.reqCtx()
	defer cancel()

	var (
		g   *match.Match
		err error
	)
	if req.Accept {
		g, err = s.d.Matches.AcceptDraw(ctx, id, userID)
	} else {
		g, err = s.d.Matches.OfferDraw(ctx, id, userID)
	}
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, s.view(g))
}

// handleBoard renders the position as PNG. Black participants get the flipped board.
func (s *Server) handleBoard(rc *fasthttp.RequestCtx, id string) {
	viewer := strings.TrimSpace(string(rc.Request.Header.Peek(headerUserID)))
	ctx, cancel := s.reqCtx()
	defer cancel()
	g, err := s.d.Matches.Get(ctx, id)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	png, err := s.d.Matches.RenderBoard(ctx, g, viewer)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	rc.SetContentType("image/png")
	rc.SetStatusCode(fasthttp.StatusOK)
	rc.SetBody(png)
}

func (s *Server) handleHistory(rc *fasthttp.RequestCtx) {
	userID, ok := s.caller(rc)
	if !ok {
		return
	}
	limit := s.d.HistoryLimit
	if n, err := rc.QueryArgs().GetUint("limit"); err == nil && n > 0 {
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	ctx, cancel := s.reqCtx()
	defer cancel()
	results, err := s.d.Matches.RecentResults(ctx, userID, limit)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	out := chessdto.HistoryResponse{Results: make([]chessdto.ResultView, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, match.ResultView(r))
	}
	writeJSON(rc, fasthttp.StatusOK, out)
}

func (s *Server) view(g *match.Match) *chessdto.MatchView {
	v := match.ToDTO(g)
	if v != nil {
		v.Summary = summarize(s.d.Catalog, g)
	}
	return v
}
