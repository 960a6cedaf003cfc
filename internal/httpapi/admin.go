package httpapi

import (
	"github.com/valyala/fasthttp"

	"github.com/park285/oh-my-chess/pkg/chessdto"
)

func (s *Server) handleGetURL(rc *fasthttp.RequestCtx) {
	ctx, cancel := s.reqCtx()
	defer cancel()
	u, err := s.d.Settings.URL(ctx)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, chessdto.URLResponse{URL: u, Admin: s.d.Settings.Admin()})
}

func (s *Server) handleSetURL(rc *fasthttp.RequestCtx) {
	userID, ok := s.caller(rc)
	if !ok {
		return
	}
	var req chessdto.SetURLRequest
	if !s.decode(rc, &req) {
		return
	}
	ctx, cancel := s.reqCtx()
	defer cancel()
	if err := s.d.Settings.SetURL(ctx, userID, req.URL); err != nil {
		s.writeErr(rc, err)
		return
	}
	u, err := s.d.Settings.URL(ctx)
	if err != nil {
		s.writeErr(rc, err)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, chessdto.URLResponse{URL: u, Admin: s.d.Settings.Admin()})
}
