package match

import (
	"context"
	"fmt"

	"github.com/park285/oh-my-chess/internal/domain"
	"github.com/park285/oh-my-chess/internal/render"
	"github.com/park285/oh-my-chess/internal/rules"
	"github.com/park285/oh-my-chess/pkg/chessdto"
)

// ToDTO converts a match to its public view.
func ToDTO(g *Match) *chessdto.MatchView {
	if g == nil {
		return nil
	}
	return &chessdto.MatchView{
		ID:          g.ID,
		Status:      string(g.Status),
		RulesStatus: g.State.Status.String(),
		Turn:        g.State.Turn.String(),
		InCheck:     rules.InCheck(&g.State.Board, g.State.Turn),
		White:       chessdto.PlayerRef{ID: g.WhiteID, Name: g.WhiteName},
		Black:       chessdto.PlayerRef{ID: g.BlackID, Name: g.BlackName},
		Board:       g.State.Board.Rows(),
		MovesUCI:    append([]string{}, g.MovesUCI...),
		MovesSAN:    append([]string{}, g.MovesSAN...),
		MoveCount:   len(g.MovesUCI),
		Winner:      g.Winner,
		Outcome:     g.Outcome,
		Method:      g.Method,
		DrawOfferBy: g.DrawOfferBy,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// ResultEventOf builds the notification payload for a finished match.
func ResultEventOf(g *Match) chessdto.ResultEvent {
	return chessdto.ResultEvent{
		Type:     "match_result",
		MatchID:  g.ID,
		Status:   string(g.Status),
		Result:   g.Outcome,
		Method:   g.Method,
		Winner:   g.Winner,
		WhiteID:  g.WhiteID,
		BlackID:  g.BlackID,
		MovesSAN: append([]string{}, g.MovesSAN...),
		EndedAt:  g.UpdatedAt,
	}
}

func ResultView(r *domain.MatchResult) chessdto.ResultView {
	return chessdto.ResultView{
		MatchID:      r.MatchID,
		WhiteID:      r.WhiteID,
		WhiteName:    r.WhiteName,
		BlackID:      r.BlackID,
		BlackName:    r.BlackName,
		Result:       r.Result,
		ResultMethod: r.ResultMethod,
		MovesSAN:     append([]string{}, r.MovesSAN...),
		PGN:          r.PGN,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		DurationMS:   r.Duration.Milliseconds(),
	}
}

// RenderBoard draws the match from viewerID's side; Black sees the board flipped.
func (m *Manager) RenderBoard(ctx context.Context, g *Match, viewerID string) ([]byte, error) {
	if m == nil || g == nil {
		return nil, ErrInvalidArgs
	}
	opts := render.Options{
		Header: fmt.Sprintf("%s vs %s", g.WhiteName, g.BlackName),
		Turn:   turnLabel(g),
	}
	if side, ok := g.ColorOf(viewerID); ok && side == rules.Black {
		opts.Flip = true
	}
	if mv, ok := g.LastMove(); ok {
		opts.Highlight = &render.Highlight{From: mv.From, To: mv.To}
	}
	if turn := g.State.Turn; rules.InCheck(&g.State.Board, turn) {
		opts.Check = &turn
	}
	return m.renderer.RenderPNG(ctx, &g.State.Board, opts)
}

func turnLabel(g *Match) string {
	if !g.Active() {
		return fmt.Sprintf("%s (%s)", g.Status, g.Method)
	}
	n := len(g.MovesUCI)/2 + 1
	if g.State.Turn == rules.White {
		return fmt.Sprintf("White to move - move %d", n)
	}
	return fmt.Sprintf("Black to move - move %d", n)
}
