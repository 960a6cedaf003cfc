package httpapi

import (
	"errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/oh-my-chess/internal/lobby"
	"github.com/park285/oh-my-chess/internal/match"
	"github.com/park285/oh-my-chess/internal/obslog"
	"github.com/park285/oh-my-chess/internal/rules"
	"github.com/park285/oh-my-chess/internal/settings"
	"github.com/park285/oh-my-chess/pkg/chessdto"
)

var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{match.ErrNotFound, fasthttp.StatusNotFound, "not_found"},
	{lobby.ErrLobbyGone, fasthttp.StatusNotFound, "lobby_gone"},
	{match.ErrNotParticipant, fasthttp.StatusForbidden, "not_participant"},
	{settings.ErrNotAdmin, fasthttp.StatusForbidden, "not_admin"},
	{match.ErrConcurrentUpdate, fasthttp.StatusConflict, "concurrent_update"},
	{match.ErrNoDrawOffer, fasthttp.StatusConflict, "no_draw_offer"},
	{match.ErrOwnDrawOffer, fasthttp.StatusConflict, "own_draw_offer"},
	{lobby.ErrLobbyStarted, fasthttp.StatusConflict, "lobby_started"},
	{lobby.ErrFull, fasthttp.StatusConflict, "lobby_full"},
	{lobby.ErrOwnLobby, fasthttp.StatusConflict, "own_lobby"},
	{lobby.ErrPlayerBusy, fasthttp.StatusConflict, "player_busy"},
	{match.ErrPlayerBusy, fasthttp.StatusConflict, "player_busy"},
	{lobby.ErrCreatorHasLobby, fasthttp.StatusConflict, "creator_has_lobby"},
	{match.ErrSamePlayer, fasthttp.StatusBadRequest, "same_player"},
	{match.ErrInvalidArgs, fasthttp.StatusBadRequest, "invalid_args"},
	{lobby.ErrInvalidArgs, fasthttp.StatusBadRequest, "invalid_args"},
	{settings.ErrInvalidURL, fasthttp.StatusBadRequest, "invalid_url"},
}

// writeErr maps a domain error to a status and DomainError body.
// Rules rejections are 422 and carry the rejected move in the message.
func (s *Server) writeErr(rc *fasthttp.RequestCtx, err error) {
	if code := rules.Code(err); code != "" {
		data := map[string]any{"Move": ""}
		var me *rules.MoveError
		if errors.As(err, &me) {
			data["Move"] = me.Move.String()
		}
		s.writeCode(rc, fasthttp.StatusUnprocessableEntity, code, data, err.Error())
		return
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			s.writeCode(rc, e.status, e.code, nil, err.Error())
			return
		}
	}
	obslog.L().Error("http_internal_error", zap.ByteString("path", rc.Path()), zap.Error(err))
	s.writeCode(rc, fasthttp.StatusInternalServerError, "internal", nil, "internal error")
}

func (s *Server) writeCode(rc *fasthttp.RequestCtx, status int, code string, data map[string]any, fallback string) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Detail"]; !ok {
		data["Detail"] = fallback
	}
	writeJSON(rc, status, chessdto.ErrorResponse{Error: chessdto.DomainError{
		Code:      code,
		Message:   s.d.Catalog.Text("error."+code, data, fallback),
		Retryable: code == "concurrent_update",
	}})
}
