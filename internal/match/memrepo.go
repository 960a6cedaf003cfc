package match

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/oh-my-chess/internal/domain"
)

// memrepo is an in-memory ResultStore used when no database is configured.
type memrepo struct {
	mu      sync.RWMutex
	nextID  int64
	byMatch map[string]*domain.MatchResult
}

func NewMemoryStore() ResultStore {
	return &memrepo{byMatch: make(map[string]*domain.MatchResult)}
}

// SaveResult upserts by match ID, keeping the original row ID.
func (m *memrepo) SaveResult(ctx context.Context, r *domain.MatchResult) error {
	if r == nil || strings.TrimSpace(r.MatchID) == "" {
		return ErrInvalidArgs
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	if prev, ok := m.byMatch[r.MatchID]; ok {
		cp.ID = prev.ID
	} else {
		m.nextID++
		cp.ID = m.nextID
	}
	m.byMatch[r.MatchID] = &cp
	return nil
}

func (m *memrepo) RecentResults(ctx context.Context, userID string, limit int) ([]*domain.MatchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]*domain.MatchResult, 0)
	for _, r := range m.byMatch {
		if r.Involves(userID) {
			cp := *r
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
