package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/oh-my-chess/internal/domain"
)

// ResultStore archives finished matches.
type ResultStore interface {
	SaveResult(ctx context.Context, r *domain.MatchResult) error
	RecentResults(ctx context.Context, userID string, limit int) ([]*domain.MatchResult, error)
}

// ResultOf converts a finished match into its archive record.
func ResultOf(g *Match) *domain.MatchResult {
	if g == nil {
		return nil
	}
	result := strings.TrimSpace(g.Outcome)
	duration := g.UpdatedAt.Sub(g.CreatedAt)
	if duration < 0 {
		duration = 0
	}
	return &domain.MatchResult{
		MatchID:      g.ID,
		WhiteID:      g.WhiteID,
		WhiteName:    g.WhiteName,
		BlackID:      g.BlackID,
		BlackName:    g.BlackName,
		Result:       result,
		ResultMethod: g.Method,
		MovesUCI:     append([]string(nil), g.MovesUCI...),
		MovesSAN:     append([]string(nil), g.MovesSAN...),
		PGN:          buildPGN(g, mapResultToPGN(result)),
		StartedAt:    g.CreatedAt,
		EndedAt:      g.UpdatedAt,
		Duration:     duration,
	}
}

func mapResultToPGN(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

func buildPGN(g *Match, pgnResult string) string {
	if g == nil {
		return ""
	}
	var b strings.Builder
	date := g.UpdatedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"oh-my-chess\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(g.WhiteName))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(g.BlackName))
	if m := strings.TrimSpace(g.Method); m != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(m)))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", pgnResult)

	for i := 0; i < len(g.MovesSAN); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, strings.TrimSpace(g.MovesSAN[i]))
		if i+1 < len(g.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(g.MovesSAN[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(pgnResult)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
