package lobby

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/oh-my-chess/internal/match"
	"github.com/park285/oh-my-chess/internal/obslog"
)

// Matches is the part of the match store the lobby needs.
type Matches interface {
	ActiveByUser(ctx context.Context, userID string) (*match.Match, error)
	Create(ctx context.Context, whiteID, whiteName, blackID, blackName string) (*match.Match, error)
}

type Manager struct {
	rdb     *redis.Client
	store   *Store
	matches Matches
	now     func() time.Time
}

func NewManager(rdb *redis.Client, matches Matches) *Manager {
	return &Manager{rdb: rdb, store: NewStore(rdb), matches: matches, now: time.Now}
}

// Make opens a lobby and returns its join code.
func (m *Manager) Make(ctx context.Context, userID, userName string) (*MakeResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidArgs
	}
	if err := m.ensureIdle(ctx, userID); err != nil {
		return nil, err
	}
	if open, err := m.openLobbyOf(ctx, userID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, ErrCreatorHasLobby
	}

	for i := 0; i < 5; i++ {
		code, err := codeGen()
		if err != nil {
			return nil, err
		}
		// claim the code only if nobody else holds it
		ok, err := m.rdb.SetNX(ctx, m.store.keyMeta(code), []byte("{}"), ttlLobby).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		meta := &Meta{
			Code:        code,
			State:       StateOpen,
			CreatedAt:   m.now(),
			CreatorID:   userID,
			CreatorName: displayName(userID, userName),
		}
		if err := m.store.SaveMeta(ctx, meta); err != nil {
			return nil, err
		}
		if err := m.store.AddParticipant(ctx, code, userID); err != nil {
			return nil, err
		}
		if err := m.store.AddOpen(ctx, code); err != nil {
			return nil, err
		}
		obslog.L().Info("lobby_make", zap.String("code", code), zap.String("creator_id", userID))
		return &MakeResult{Code: code, Meta: meta}, nil
	}
	return nil, fmt.Errorf("failed to allocate lobby code")
}

// Join adds the second participant and starts a match with random colors.
func (m *Manager) Join(ctx context.Context, code, userID, userName string) (*JoinResult, error) {
	code, userID = strings.TrimSpace(code), strings.TrimSpace(userID)
	if code == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrLobbyGone
	}
	if meta.CreatorID == userID {
		return nil, ErrOwnLobby
	}
	if meta.State != StateOpen {
		return nil, ErrLobbyStarted
	}
	// the creator may have started another match since Make
	for _, u := range []string{userID, meta.CreatorID} {
		if err := m.ensureIdle(ctx, u); err != nil {
			return nil, err
		}
	}

	// claim the seat and flip the state in one transaction so only one joiner can start the match
	metaKey, partKey := m.store.keyMeta(code), m.store.keyParticipants(code)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, metaKey).Bytes()
		if err == redis.Nil {
			return ErrLobbyGone
		}
		if err != nil {
			return err
		}
		var cur Meta
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		if cur.State != StateOpen {
			return ErrLobbyStarted
		}
		cnt, err := tx.SCard(ctx, partKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if cnt >= 2 {
			return ErrFull
		}
		cur.State = StateStarted
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, metaKey, newRaw, ttlLobby)
		pipe.SAdd(ctx, partKey, userID)
		pipe.Expire(ctx, partKey, ttlLobby)
		pipe.SAdd(ctx, m.store.keyUserIdx(userID), code)
		pipe.Expire(ctx, m.store.keyUserIdx(userID), ttlLobby)
		pipe.SRem(ctx, m.store.keyOpen(), code)
		_, err = pipe.Exec(ctx)
		if err == nil {
			meta = &cur
		}
		return err
	}, metaKey, partKey)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			err = ErrLobbyStarted
		}
		obslog.L().Warn("lobby_join_error", zap.String("code", code), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	whiteID, whiteName := meta.CreatorID, meta.CreatorName
	blackID, blackName := userID, displayName(userID, userName)
	if coinFlip() {
		whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
	}
	g, err := m.matches.Create(ctx, whiteID, whiteName, blackID, blackName)
	if err != nil {
		m.reopen(ctx, meta, userID)
		if errors.Is(err, match.ErrPlayerBusy) {
			err = ErrPlayerBusy
		}
		return nil, err
	}

	meta.MatchID = g.ID
	if err := m.store.SaveMeta(ctx, meta); err != nil {
		return nil, err
	}
	obslog.L().Info("lobby_join",
		zap.String("code", code),
		zap.String("match_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return &JoinResult{Started: true, MatchID: g.ID, Meta: meta}, nil
}

// ListLobby returns lobbies still waiting for an opponent.
func (m *Manager) ListLobby(ctx context.Context) ([]*Meta, error) { return m.store.ListOpen(ctx) }

// Get loads a lobby by code.
func (m *Manager) Get(ctx context.Context, code string) (*Meta, error) {
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrLobbyGone
	}
	return meta, nil
}

func (m *Manager) ensureIdle(ctx context.Context, userID string) error {
	g, err := m.matches.ActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if g != nil {
		return ErrPlayerBusy
	}
	return nil
}

func (m *Manager) openLobbyOf(ctx context.Context, userID string) (*Meta, error) {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		meta, _ := m.store.LoadMeta(ctx, c)
		if meta != nil && meta.State == StateOpen && meta.CreatorID == userID {
			return meta, nil
		}
	}
	return nil, nil
}

// reopen rolls back a claimed seat when the match could not be created.
func (m *Manager) reopen(ctx context.Context, meta *Meta, userID string) {
	meta.State = StateOpen
	if err := m.store.SaveMeta(ctx, meta); err != nil {
		obslog.L().Error("lobby_reopen_error", zap.String("code", meta.Code), zap.Error(err))
		return
	}
	_ = m.rdb.SRem(ctx, m.store.keyParticipants(meta.Code), userID).Err()
	_ = m.rdb.SRem(ctx, m.store.keyUserIdx(userID), meta.Code).Err()
	_ = m.store.AddOpen(ctx, meta.Code)
}

// coinFlip uses crypto/rand; a failed read keeps the creator on White.
func coinFlip() bool {
	n, err := rand.Int(rand.Reader, big.NewInt(2))
	return err == nil && n.Int64() == 1
}

func displayName(id, name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return id
}
