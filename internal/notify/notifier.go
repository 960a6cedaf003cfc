package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/oh-my-chess/internal/obslog"
	"github.com/park285/oh-my-chess/pkg/chessdto"
)

// URLSource supplies the delivery target. An empty URL disables delivery.
type URLSource interface {
	URL(ctx context.Context) (string, error)
}

// Notifier pushes finished-match events to the configured service URL.
type Notifier struct {
	src  URLSource
	http *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Notifier)

func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) { n.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(n *Notifier) { n.retryMax = max }
}

// WithClient swaps the fasthttp client (tests dial an in-memory listener).
func WithClient(c *fasthttp.Client) Option {
	return func(n *Notifier) { n.http = c }
}

func New(src URLSource, opts ...Option) *Notifier {
	n := &Notifier{
		src:            src,
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 5 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify delivers ev over HTTP or WebSocket depending on the URL scheme.
func (n *Notifier) Notify(ctx context.Context, ev chessdto.ResultEvent) error {
	if n == nil || n.src == nil {
		return nil
	}
	target, err := n.src.URL(ctx)
	if err != nil {
		return fmt.Errorf("load target url: %w", err)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse target url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		err = n.post(ctx, target, ev)
	case "ws", "wss":
		err = n.sendWS(ctx, target, ev)
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err == nil {
		obslog.L().Info("result_notify", zap.String("match_id", ev.MatchID), zap.String("scheme", u.Scheme))
	}
	return err
}

func (n *Notifier) post(ctx context.Context, target string, ev chessdto.ResultEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(target)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	attempts := n.retryMax
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := n.http.DoDeadline(req, resp, n.computeDeadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return nil
			}
			lastErr = fmt.Errorf("notify target error: status=%d body=%s", status, truncate(string(resp.Body()), 256))
			if !shouldRetryStatus(status) {
				return lastErr
			}
		}
		if attempt == attempts {
			break
		}
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

// sendWS dials, writes one JSON frame and closes. The target keeps no session with us.
func (n *Notifier) sendWS(ctx context.Context, target string, ev chessdto.ResultEvent) error {
	dctx, cancel := context.WithDeadline(ctx, n.computeDeadline(ctx))
	defer cancel()

	conn, _, err := websocket.Dial(dctx, target, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	if err := wsjson.Write(dctx, conn, ev); err != nil {
		return fmt.Errorf("ws write: %w", err)
	}
	return nil
}

func (n *Notifier) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(n.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		attempt = 5
	}
	return time.Duration(1<<uint(attempt-1)) * 50 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
