package settings

import (
	"context"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/oh-my-chess/internal/obslog"
)

const keyServiceURL = "settings:service_url"

var (
	ErrNotAdmin   = errf("only the admin may change settings")
	ErrInvalidURL = errf("url must be an absolute http(s) or ws(s) address")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }

// Store keeps the admin-owned service URL in Redis. The admin is fixed at construction.
type Store struct {
	rdb   *redis.Client
	admin string
}

// NewStore seeds the URL with initialURL unless a value is already stored.
func NewStore(ctx context.Context, rdb *redis.Client, adminID, initialURL string) (*Store, error) {
	s := &Store{rdb: rdb, admin: strings.TrimSpace(adminID)}
	if u := strings.TrimSpace(initialURL); u != "" {
		if err := validateURL(u); err != nil {
			return nil, err
		}
		if err := rdb.SetNX(ctx, keyServiceURL, u, 0).Err(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Admin() string { return s.admin }

// URL returns the configured service URL, or "" when none is set.
func (s *Store) URL(ctx context.Context) (string, error) {
	v, err := s.rdb.Get(ctx, keyServiceURL).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

// SetURL replaces the service URL. An empty value clears it.
func (s *Store) SetURL(ctx context.Context, caller, raw string) error {
	caller = strings.TrimSpace(caller)
	if caller == "" || caller != s.admin {
		return ErrNotAdmin
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if err := s.rdb.Del(ctx, keyServiceURL).Err(); err != nil {
			return err
		}
		obslog.L().Info("settings_url_update", zap.String("admin", caller), zap.Bool("cleared", true))
		return nil
	}
	if err := validateURL(raw); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyServiceURL, raw, 0).Err(); err != nil {
		return err
	}
	obslog.L().Info("settings_url_update", zap.String("admin", caller), zap.String("url", raw))
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
		return nil
	default:
		return ErrInvalidURL
	}
}
