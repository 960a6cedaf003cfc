package httpapi

import (
	"github.com/park285/oh-my-chess/internal/match"
	"github.com/park285/oh-my-chess/internal/msgcat"
	"github.com/park285/oh-my-chess/internal/rules"
)

// summarize renders a one-line status for the match from the catalog.
func summarize(cat *msgcat.Catalog, g *match.Match) string {
	if g == nil {
		return ""
	}
	winnerName := func() string {
		if g.Winner == g.WhiteID {
			return g.WhiteName
		}
		return g.BlackName
	}
	loserName := func() string {
		if g.Winner == g.WhiteID {
			return g.BlackName
		}
		return g.WhiteName
	}

	switch g.Status {
	case match.StatusFinished:
		return cat.Text("match.checkmate", map[string]any{"Name": winnerName(), "Color": g.Outcome}, "checkmate")
	case match.StatusResigned:
		return cat.Text("match.resignation", map[string]any{"Name": winnerName(), "Loser": loserName(), "Color": g.Outcome}, "resignation")
	case match.StatusDraw:
		if g.Method == "stalemate" {
			return cat.Text("match.stalemate", nil, "stalemate")
		}
		return cat.Text("match.agreement", nil, "draw")
	}

	if g.DrawOfferBy != "" {
		name := g.WhiteName
		if g.DrawOfferBy == g.BlackID {
			name = g.BlackName
		}
		return cat.Text("match.draw_offered", map[string]any{"Name": name}, "draw offered")
	}
	turn := g.State.Turn
	data := map[string]any{"Turn": "White", "Name": g.WhiteName}
	if turn == rules.Black {
		data = map[string]any{"Turn": "Black", "Name": g.BlackName}
	}
	if rules.InCheck(&g.State.Board, turn) {
		return cat.Text("match.check", data, "check")
	}
	return cat.Text("match.turn", data, "")
}
