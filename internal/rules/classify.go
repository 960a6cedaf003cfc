package rules

// Classify derives the status of the position for the side on turn.
// It never returns Draw; draws are recorded by the host through DeclareDraw.
func Classify(state GameState) GameStatus {
	b := &state.Board
	if hasLegalMove(b, state.Turn) {
		return Ongoing
	}
	if InCheck(b, state.Turn) {
		return Checkmate
	}
	return Stalemate
}

// LegalMoves lists every legal move for the side on turn. It is empty once the game is over.
func LegalMoves(state GameState) []ChessMove {
	if state.Status.Terminal() {
		return nil
	}
	var out []ChessMove
	forEachLegalMove(&state.Board, state.Turn, func(mv ChessMove) bool {
		out = append(out, mv)
		return true
	})
	return out
}

func hasLegalMove(b *Board, p Player) bool {
	found := false
	forEachLegalMove(b, p, func(ChessMove) bool {
		found = true
		return false
	})
	return found
}

// forEachLegalMove scans every piece of p against every square. fn returns false to stop.
func forEachLegalMove(b *Board, p Player, fn func(ChessMove) bool) {
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if c := b[r][f]; c.Empty() || c.Owner != p {
				continue
			}
			from := Square{Rank: r, File: f}
			for tr := 0; tr < 8; tr++ {
				for tf := 0; tf < 8; tf++ {
					mv := ChessMove{From: from, To: Square{Rank: tr, File: tf}}
					if !canMove(b, mv.From, mv.To) || leavesKingInCheck(b, mv) {
						continue
					}
					if !fn(mv) {
						return
					}
				}
			}
		}
	}
}
