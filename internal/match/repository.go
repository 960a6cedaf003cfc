package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/oh-my-chess/internal/domain"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS match_results (
    id            BIGSERIAL PRIMARY KEY,
    match_id      TEXT NOT NULL UNIQUE,
    white_id      TEXT NOT NULL,
    white_name    TEXT NOT NULL,
    black_id      TEXT NOT NULL,
    black_name    TEXT NOT NULL,
    result        TEXT NOT NULL,
    result_method TEXT NOT NULL,
    moves_uci     JSONB NOT NULL,
    moves_san     JSONB NOT NULL,
    pgn           TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS match_results_white_idx ON match_results (white_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS match_results_black_idx ON match_results (black_id, ended_at DESC);`

// Repository is the PostgreSQL-backed ResultStore.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{db: db}, nil
}

func NewRepositoryWithDB(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates the results table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveResult upserts a final match result.
func (r *Repository) SaveResult(ctx context.Context, res *domain.MatchResult) error {
	if r == nil || r.db == nil || res == nil {
		return nil
	}
	movesUCIRaw, _ := json.Marshal(res.MovesUCI)
	movesSANRaw, _ := json.Marshal(res.MovesSAN)

	q := `INSERT INTO match_results (
        match_id, white_id, white_name, black_id, black_name,
        result, result_method, moves_uci, moves_san, pgn,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
      ) ON CONFLICT (match_id) DO UPDATE SET
        white_name=EXCLUDED.white_name,
        black_name=EXCLUDED.black_name,
        result=EXCLUDED.result,
        result_method=EXCLUDED.result_method,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		res.MatchID,
		res.WhiteID, res.WhiteName,
		res.BlackID, res.BlackName,
		res.Result, strings.TrimSpace(res.ResultMethod), string(movesUCIRaw), string(movesSANRaw), res.PGN,
		res.StartedAt, res.EndedAt, res.Duration.Milliseconds(),
	)
	return err
}

func (r *Repository) RecentResults(ctx context.Context, userID string, limit int) ([]*domain.MatchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	q := `SELECT id, match_id, white_id, white_name, black_id, black_name,
        result, result_method, moves_uci, moves_san, pgn, started_at, ended_at, duration_ms
      FROM match_results
      WHERE white_id = $1 OR black_id = $1
      ORDER BY ended_at DESC, id DESC
      LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.MatchResult, 0, limit)
	for rows.Next() {
		var (
			res                domain.MatchResult
			movesUCI, movesSAN []byte
			durationMS         int64
		)
		if err := rows.Scan(&res.ID, &res.MatchID, &res.WhiteID, &res.WhiteName, &res.BlackID, &res.BlackName,
			&res.Result, &res.ResultMethod, &movesUCI, &movesSAN, &res.PGN, &res.StartedAt, &res.EndedAt, &durationMS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(movesUCI, &res.MovesUCI); err != nil {
			return nil, fmt.Errorf("decode moves_uci: %w", err)
		}
		if err := json.Unmarshal(movesSAN, &res.MovesSAN); err != nil {
			return nil, fmt.Errorf("decode moves_san: %w", err)
		}
		res.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, &res)
	}
	return out, rows.Err()
}
