package match

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/oh-my-chess/internal/domain"
	"github.com/park285/oh-my-chess/internal/obslog"
	"github.com/park285/oh-my-chess/internal/render"
	"github.com/park285/oh-my-chess/internal/rules"
)

const (
	defaultTTL  = 24 * time.Hour
	userLockTTL = 5 * time.Second
)

// FinishHook is called once for every match that reaches a final status.
type FinishHook func(ctx context.Context, g *Match)

type Manager struct {
	rdb      *redis.Client
	ttl      time.Duration
	results  ResultStore
	renderer *render.Renderer
	now      func() time.Time

	hookMu sync.RWMutex
	hooks  []FinishHook
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithResultStore wires the archive for finished matches.
func WithResultStore(s ResultStore) Option {
	return func(m *Manager) { m.results = s }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for match manager")
	}
	ropts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManagerWithClient(rdb, opts...), nil
}

// NewManagerWithClient shares an existing client, e.g. with the lobby and settings stores.
func NewManagerWithClient(rdb *redis.Client, opts ...Option) *Manager {
	m := &Manager{rdb: rdb, ttl: defaultTTL, renderer: render.New(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// OnFinish registers a hook run after a match ends and its result is archived.
func (m *Manager) OnFinish(h FinishHook) {
	if m == nil || h == nil {
		return
	}
	m.hookMu.Lock()
	m.hooks = append(m.hooks, h)
	m.hookMu.Unlock()
}

// Create starts a new match with the given colors.
func (m *Manager) Create(ctx context.Context, whiteID, whiteName, blackID, blackName string) (*Match, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("match manager not initialized")
	}
	whiteID, blackID = strings.TrimSpace(whiteID), strings.TrimSpace(blackID)
	if whiteID == "" || blackID == "" {
		return nil, ErrInvalidArgs
	}
	if whiteID == blackID {
		return nil, ErrSamePlayer
	}
	unlock, err := m.lockUsers(ctx, whiteID, blackID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, u := range []string{whiteID, blackID} {
		busy, err := m.ActiveByUser(ctx, u)
		if err != nil {
			return nil, err
		}
		if busy != nil {
			return nil, ErrPlayerBusy
		}
	}
	now := m.now()
	g := &Match{
		ID:        uuid.NewString(),
		State:     rules.NewGame(rules.Handle(whiteID), rules.Handle(blackID)),
		MovesUCI:  []string{},
		MovesSAN:  []string{},
		Status:    StatusActive,
		WhiteID:   whiteID,
		WhiteName: displayName(whiteID, whiteName),
		BlackID:   blackID,
		BlackName: displayName(blackID, blackName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.save(ctx, g); err != nil {
		return nil, err
	}
	if err := m.indexParticipants(ctx, g.ID, g.WhiteID, g.BlackID); err != nil {
		return nil, err
	}
	obslog.L().Info("match_create",
		zap.String("match_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return g, nil
}

// Get loads a match by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Match, error) {
	g, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	return g, nil
}

// ActiveByUser returns the most recently updated active match for a user, or nil.
func (m *Manager) ActiveByUser(ctx context.Context, userID string) (*Match, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("match manager not initialized")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	ids, err := m.rdb.SMembers(ctx, idxUserKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*Match
	for _, id := range ids {
		g, gerr := m.get(ctx, id)
		if gerr == nil && g.Active() {
			list = append(list, g)
		}
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list[0], nil
}

// PlayMove validates and applies mv on behalf of userID.
// Rules rejections are returned unchanged so callers can inspect them with errors.Is.
func (m *Manager) PlayMove(ctx context.Context, id, userID string, mv rules.ChessMove) (*Match, error) {
	userID = strings.TrimSpace(userID)
	g, err := m.update(ctx, id, func(cur *Match) error {
		mover, ok := cur.ColorOf(userID)
		if !ok {
			return ErrNotParticipant
		}
		if !cur.Active() {
			return fmt.Errorf("match %s is %s: %w", cur.ID, strings.ToLower(string(cur.Status)), rules.ErrGameAlreadyOver)
		}
		if err := rules.Validate(cur.State, mv, mover); err != nil {
			return err
		}
		before := cur.State.Board
		next, err := rules.Apply(cur.State, mv)
		if err != nil {
			return err
		}
		cur.MovesSAN = append(cur.MovesSAN, sanFor(cur.MovesUCI, &before, mv))
		cur.MovesUCI = append(cur.MovesUCI, mv.String())
		cur.State = next
		cur.DrawOfferBy = ""
		cur.UpdatedAt = m.now()

		switch next.Status {
		case rules.Checkmate:
			cur.Status = StatusFinished
			cur.Winner = userID
			cur.Outcome = mover.String()
			cur.Method = "checkmate"
		case rules.Stalemate:
			cur.Status = StatusDraw
			cur.Outcome = "draw"
			cur.Method = "stalemate"
		}
		return nil
	})
	if err != nil {
		if code := rules.Code(err); code != "" {
			obslog.L().Debug("match_move_rejected", zap.String("match_id", id), zap.String("user_id", userID), zap.String("move", mv.String()), zap.String("code", code))
		}
		return nil, err
	}

	obslog.L().Info("match_move",
		zap.String("match_id", g.ID),
		zap.String("user_id", userID),
		zap.String("move", mv.String()),
		zap.String("turn", g.State.Turn.String()),
		zap.String("status", string(g.Status)),
		zap.String("outcome", g.Outcome),
	)
	m.finishIfFinal(ctx, g)
	return g, nil
}

// Resign ends the match in favor of the opponent.
func (m *Manager) Resign(ctx context.Context, id, userID string) (*Match, error) {
	userID = strings.TrimSpace(userID)
	g, err := m.update(ctx, id, func(cur *Match) error {
		mover, ok := cur.ColorOf(userID)
		if !ok {
			return ErrNotParticipant
		}
		if !cur.Active() {
			return rules.ErrGameAlreadyOver
		}
		cur.Status = StatusResigned
		cur.Winner = cur.opponentOf(userID)
		cur.Outcome = mover.Opposite().String()
		cur.Method = "resignation"
		cur.DrawOfferBy = ""
		cur.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("match_resign",
		zap.String("match_id", g.ID),
		zap.String("resigner", userID),
		zap.String("winner", g.Winner),
	)
	m.finishIfFinal(ctx, g)
	return g, nil
}

// OfferDraw records a pending draw offer. The opponent settles it with AcceptDraw.
func (m *Manager) OfferDraw(ctx context.Context, id, userID string) (*Match, error) {
	userID = strings.TrimSpace(userID)
	g, err := m.update(ctx, id, func(cur *Match) error {
		if !cur.Participant(userID) {
			return ErrNotParticipant
		}
		if !cur.Active() {
			return rules.ErrGameAlreadyOver
		}
		cur.DrawOfferBy = userID
		cur.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("match_draw_offer", zap.String("match_id", g.ID), zap.String("user_id", userID))
	return g, nil
}

// AcceptDraw ends the match as a draw by agreement.
func (m *Manager) AcceptDraw(ctx context.Context, id, userID string) (*Match, error) {
	userID = strings.TrimSpace(userID)
	g, err := m.update(ctx, id, func(cur *Match) error {
		if !cur.Participant(userID) {
			return ErrNotParticipant
		}
		if !cur.Active() {
			return rules.ErrGameAlreadyOver
		}
		switch cur.DrawOfferBy {
		case "":
			return ErrNoDrawOffer
		case userID:
			return ErrOwnDrawOffer
		}
		next, err := rules.DeclareDraw(cur.State)
		if err != nil {
			return err
		}
		cur.State = next
		cur.Status = StatusDraw
		cur.Outcome = "draw"
		cur.Method = "agreement"
		cur.DrawOfferBy = ""
		cur.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("match_draw", zap.String("match_id", g.ID), zap.String("accepted_by", userID))
	m.finishIfFinal(ctx, g)
	return g, nil
}

// LegalMoves lists the moves available to the side on turn, in coordinate notation.
func (m *Manager) LegalMoves(ctx context.Context, id string) ([]string, error) {
	g, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.Active() {
		return []string{}, nil
	}
	moves := rules.LegalMoves(g.State)
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		out = append(out, mv.String())
	}
	return out, nil
}

// RecentResults returns archived results for a user, newest first.
func (m *Manager) RecentResults(ctx context.Context, userID string, limit int) ([]*domain.MatchResult, error) {
	if m == nil || m.results == nil {
		return []*domain.MatchResult{}, nil
	}
	return m.results.RecentResults(ctx, strings.TrimSpace(userID), limit)
}

// update runs fn against the freshly loaded match inside a WATCH transaction.
// fn mutates cur in place; any error aborts without writing.
func (m *Manager) update(ctx context.Context, id string, fn func(cur *Match) error) (*Match, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("match manager not initialized")
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidArgs
	}
	key := matchKey(id)
	var out *Match
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var cur Match
		if jerr := json.Unmarshal(raw, &cur); jerr != nil {
			return jerr
		}
		if err := fn(&cur); err != nil {
			return err
		}
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, m.ttl)
		// 인덱스가 대국보다 먼저 만료되지 않도록 함께 갱신
		pipe.Expire(ctx, idxUserKey(cur.WhiteID), m.ttl)
		pipe.Expire(ctx, idxUserKey(cur.BlackID), m.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		out = &cur
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}
	return out, nil
}

func (m *Manager) finishIfFinal(ctx context.Context, g *Match) {
	if g == nil || g.Active() {
		return
	}
	if m.results != nil {
		if err := m.results.SaveResult(ctx, ResultOf(g)); err != nil {
			obslog.L().Error("match_result_persist_error", zap.String("match_id", g.ID), zap.String("outcome", g.Outcome), zap.Error(err))
		} else {
			obslog.L().Info("match_result_persist", zap.String("match_id", g.ID), zap.String("outcome", g.Outcome), zap.String("method", g.Method))
		}
	}
	m.hookMu.RLock()
	hooks := append([]FinishHook(nil), m.hooks...)
	m.hookMu.RUnlock()
	for _, h := range hooks {
		h(ctx, g)
	}
}

// Persistence
func (m *Manager) save(ctx context.Context, g *Match) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, matchKey(g.ID), raw, m.ttl).Err()
}

func (m *Manager) get(ctx context.Context, id string) (*Match, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("match manager not initialized")
	}
	raw, err := m.rdb.Get(ctx, matchKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Match
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (m *Manager) indexParticipants(ctx context.Context, id string, users ...string) error {
	for _, u := range users {
		if strings.TrimSpace(u) == "" {
			continue
		}
		key := idxUserKey(u)
		if err := m.rdb.SAdd(ctx, key, id).Err(); err != nil {
			return err
		}
		// 인덱스 키 TTL도 대국 TTL과 같이 갱신
		_ = m.rdb.Expire(ctx, key, m.ttl).Err()
	}
	return nil
}

// lockUsers holds a short per-user lock so concurrent Creates cannot both pass the busy check.
// A held lock fails fast with ErrConcurrentUpdate.
func (m *Manager) lockUsers(ctx context.Context, users ...string) (func(), error) {
	token := uuid.NewString()
	var held []string
	release := func() {
		for _, k := range held {
			if v, err := m.rdb.Get(ctx, k).Result(); err == nil && v == token {
				_ = m.rdb.Del(ctx, k).Err()
			}
		}
	}
	for _, u := range users {
		k := lockUserKey(u)
		ok, err := m.rdb.SetNX(ctx, k, token, userLockTTL).Result()
		if err != nil {
			release()
			return nil, err
		}
		if !ok {
			release()
			return nil, ErrConcurrentUpdate
		}
		held = append(held, k)
	}
	return release, nil
}

func matchKey(id string) string        { return "match:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string  { return "match:index:user:" + strings.TrimSpace(userID) }
func lockUserKey(userID string) string { return "match:lock:user:" + strings.TrimSpace(userID) }

func displayName(id, name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return id
}

// ParseRedisURL converts a redis:// or rediss:// URL into client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "6379")
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: addr, Username: u.User.Username(), Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: u.Hostname(), MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
