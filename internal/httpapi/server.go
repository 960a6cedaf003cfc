package httpapi

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/oh-my-chess/internal/lobby"
	"github.com/park285/oh-my-chess/internal/match"
	"github.com/park285/oh-my-chess/internal/msgcat"
	"github.com/park285/oh-my-chess/internal/obslog"
	"github.com/park285/oh-my-chess/internal/settings"
)

const (
	headerUserID    = "X-User-Id"
	maxHistoryLimit = 50
	maxBodyBytes    = 1 << 16
)

// Deps are the components the API serves.
type Deps struct {
	Matches      *match.Manager
	Lobbies      *lobby.Manager
	Settings     *settings.Store
	Catalog      *msgcat.Catalog
	HistoryLimit int
	// RequestTimeout bounds every handler's storage calls. Zero means 5s.
	RequestTimeout time.Duration
}

type Server struct {
	d Deps

	srvMu sync.Mutex
	srv   *fasthttp.Server
}

func New(d Deps) *Server {
	if d.HistoryLimit <= 0 {
		d.HistoryLimit = 10
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 5 * time.Second
	}
	return &Server{d: d}
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	srv := &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "oh-my-chess",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: maxBodyBytes,
	}
	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	obslog.L().Info("http_listen", zap.String("addr", addr))
	return srv.ListenAndServe(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.ShutdownWithContext(ctx)
}

// Handler returns the routing handler wrapped with request logging.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(rc *fasthttp.RequestCtx) {
		start := time.Now()
		s.route(rc)
		obslog.L().Info("http_request",
			zap.ByteString("method", rc.Method()),
			zap.ByteString("path", rc.Path()),
			zap.Int("status", rc.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) route(rc *fasthttp.RequestCtx) {
	method := string(rc.Method())
	seg := strings.Split(strings.Trim(string(rc.Path()), "/"), "/")

	switch {
	case len(seg) == 1 && seg[0] == "healthz":
		rc.SetStatusCode(fasthttp.StatusOK)
		rc.SetBodyString("ok")

	case len(seg) == 1 && seg[0] == "matches" && method == fasthttp.MethodPost:
		s.handleCreateMatch(rc)
	case len(seg) == 2 && seg[0] == "matches" && method == fasthttp.MethodGet:
		s.handleGetMatch(rc, seg[1])
	case len(seg) == 3 && seg[0] == "matches":
		s.routeMatch(rc, method, seg[1], seg[2])

	case len(seg) == 1 && seg[0] == "lobbies" && method == fasthttp.MethodPost:
		s.handleMakeLobby(rc)
	case len(seg) == 1 && seg[0] == "lobbies" && method == fasthttp.MethodGet:
		s.handleListLobbies(rc)
	case len(seg) == 3 && seg[0] == "lobbies" && seg[2] == "join" && method == fasthttp.MethodPost:
		s.handleJoinLobby(rc, seg[1])

	case len(seg) == 2 && seg[0] == "admin" && seg[1] == "url" && method == fasthttp.MethodGet:
		s.handleGetURL(rc)
	case len(seg) == 2 && seg[0] == "admin" && seg[1] == "url" && method == fasthttp.MethodPut:
		s.handleSetURL(rc)

	case len(seg) == 1 && seg[0] == "history" && method == fasthttp.MethodGet:
		s.handleHistory(rc)

	default:
		s.writeCode(rc, fasthttp.StatusNotFound, "not_found", nil, "route not found")
	}
}

func (s *Server) routeMatch(rc *fasthttp.RequestCtx, method, id, action string) {
	switch {
	case action == "legal" && method == fasthttp.MethodGet:
		s.handleLegalMoves(rc, id)
	case action == "board.png" && method == fasthttp.MethodGet:
		s.handleBoard(rc, id)
	case action == "moves" && method == fasthttp.MethodPost:
		s.handleMove(rc, id)
	case action == "resign" && method == fasthttp.MethodPost:
		s.handleResign(rc, id)
	case action == "draw" && method == fasthttp.MethodPost:
		s.handleDraw(rc, id)
	default:
		s.writeCode(rc, fasthttp.StatusNotFound, "not_found", nil, "route not found")
	}
}

// reqCtx is detached from the connection; fasthttp reuses RequestCtx after the handler returns.
func (s *Server) reqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.d.RequestTimeout)
}

// caller returns the X-User-Id header, writing 401 when it is absent.
func (s *Server) caller(rc *fasthttp.RequestCtx) (string, bool) {
	id := strings.TrimSpace(string(rc.Request.Header.Peek(headerUserID)))
	if id == "" {
		s.writeCode(rc, fasthttp.StatusUnauthorized, "unauthenticated", nil, "missing "+headerUserID)
		return "", false
	}
	return id, true
}

// decode parses an optional JSON body into v. An empty body leaves v untouched.
func (s *Server) decode(rc *fasthttp.RequestCtx, v any) bool {
	body := rc.PostBody()
	if len(strings.TrimSpace(string(body))) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.writeCode(rc, fasthttp.StatusBadRequest, "bad_request", map[string]any{"Detail": err.Error()}, err.Error())
		return false
	}
	return true
}

func writeJSON(rc *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		rc.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	rc.SetContentType("application/json; charset=utf-8")
	rc.SetStatusCode(status)
	rc.SetBody(b)
}
