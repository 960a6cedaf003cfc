package chessbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/oh-my-chess/internal/config"
	"github.com/park285/oh-my-chess/internal/httpapi"
	"github.com/park285/oh-my-chess/internal/lobby"
	"github.com/park285/oh-my-chess/internal/match"
	"github.com/park285/oh-my-chess/internal/msgcat"
	"github.com/park285/oh-my-chess/internal/notify"
	"github.com/park285/oh-my-chess/internal/obslog"
	"github.com/park285/oh-my-chess/internal/settings"
)

const notifyTimeout = 15 * time.Second

type Deps struct {
	Redis    *redis.Client
	Matches  *match.Manager
	Results  match.ResultStore
	Lobbies  *lobby.Manager
	Settings *settings.Store
	Catalog  *msgcat.Catalog
	Notifier *notify.Notifier
	API      *httpapi.Server

	repo *match.Repository
}

func New(ctx context.Context, cfg *config.AppConfig) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for matches and lobbies")
	}

	ropts, err := match.ParseRedisURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(ropts)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	d := &Deps{Redis: rdb}

	// Postgres가 없으면 프로세스 메모리에 결과 보관
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := match.NewRepository(cfg.DatabaseURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init result repository: %w", err)
		}
		d.repo = repo
		if err := repo.EnsureSchema(pctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		d.Results = repo
	} else {
		obslog.L().Warn("result_store_memory", zap.String("reason", "DATABASE_URL not set"))
		d.Results = match.NewMemoryStore()
	}

	d.Matches = match.NewManagerWithClient(rdb,
		match.WithTTL(time.Duration(cfg.MatchTTLSec)*time.Second),
		match.WithResultStore(d.Results),
	)
	d.Lobbies = lobby.NewManager(rdb, d.Matches)

	d.Settings, err = settings.NewStore(pctx, rdb, cfg.AdminID, cfg.ServiceURL)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init settings: %w", err)
	}
	d.Catalog, err = msgcat.New(cfg.MessagesDir)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}

	d.Notifier = notify.New(d.Settings)
	d.Matches.OnFinish(d.notifyResult)

	d.API = httpapi.New(httpapi.Deps{
		Matches:      d.Matches,
		Lobbies:      d.Lobbies,
		Settings:     d.Settings,
		Catalog:      d.Catalog,
		HistoryLimit: cfg.HistoryLimit,
	})
	return d, nil
}

// notifyResult delivers off the request path; the hook's ctx ends with the request.
func (d *Deps) notifyResult(_ context.Context, g *match.Match) {
	ev := match.ResultEventOf(g)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := d.Notifier.Notify(ctx, ev); err != nil {
			obslog.L().Warn("result_notify_error", zap.String("match_id", ev.MatchID), zap.Error(err))
		}
	}()
}

func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.repo != nil {
		_ = d.repo.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}
