package match

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/oh-my-chess/internal/rules"
)

// sanFor renders mv in standard algebraic notation by replaying history.
// Positions the notation library cannot follow (a pawn left on the last rank)
// fall back to long coordinate notation such as "e7-e8" or "d4xe5".
func sanFor(history []string, before *rules.Board, mv rules.ChessMove) string {
	game := nchess.NewGame()
	for _, u := range history {
		if err := game.PushNotationMove(u, nchess.UCINotation{}, nil); err != nil {
			return coordinateNotation(before, mv)
		}
	}
	pos := game.Position()
	if err := game.PushNotationMove(mv.String(), nchess.UCINotation{}, nil); err != nil {
		return coordinateNotation(before, mv)
	}
	moves := game.Moves()
	if len(moves) == 0 {
		return coordinateNotation(before, mv)
	}
	return nchess.AlgebraicNotation{}.Encode(pos, moves[len(moves)-1])
}

func coordinateNotation(before *rules.Board, mv rules.ChessMove) string {
	sep := "-"
	if !before.At(mv.To).Empty() {
		sep = "x"
	}
	prefix := ""
	if c := before.At(mv.From); c.Kind != rules.Pawn && !c.Empty() {
		prefix = string(c.Kind.Letter())
	}
	return prefix + mv.From.String() + sep + mv.To.String()
}
