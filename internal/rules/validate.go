package rules

// Validate runs the legality gates for mv on behalf of mover and returns the first failure.
// It never modifies state.
func Validate(state GameState, mv ChessMove, mover Player) error {
	if !mv.From.OnBoard() || !mv.To.OnBoard() {
		return reject(mv, ErrOutOfBounds)
	}
	if mv.From == mv.To {
		return reject(mv, ErrNullMove)
	}
	if state.Status.Terminal() {
		return reject(mv, ErrGameAlreadyOver)
	}

	b := &state.Board
	piece := b.At(mv.From)
	if piece.Empty() {
		return reject(mv, ErrEmptySource)
	}
	if piece.Owner != mover {
		return reject(mv, ErrWrongMover)
	}
	if mover != state.Turn {
		return reject(mv, ErrNotYourTurn)
	}
	if !canMove(b, mv.From, mv.To) {
		return reject(mv, ErrIllegalPieceMovement)
	}
	if leavesKingInCheck(b, mv) {
		return reject(mv, ErrMovesIntoCheck)
	}
	return nil
}

// leavesKingInCheck plays mv on a scratch copy and tests the mover's king.
func leavesKingInCheck(b *Board, mv ChessMove) bool {
	scratch := *b
	mover := scratch.At(mv.From).Owner
	movePiece(&scratch, mv)
	return InCheck(&scratch, mover)
}

func movePiece(b *Board, mv ChessMove) {
	b.Set(mv.To, b.At(mv.From))
	b.Clear(mv.From)
}

// IsSquareAttacked reports whether any piece of player by could capture on sq.
// Only geometric rules are consulted, never king safety, so it cannot recurse.
func IsSquareAttacked(b *Board, sq Square, by Player) bool {
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			c := b[r][f]
			if c.Empty() || c.Owner != by {
				continue
			}
			if attacks(b, Square{Rank: r, File: f}, sq) {
				return true
			}
		}
	}
	return false
}

// InCheck reports whether p's king is attacked. A side without a king is never in check.
func InCheck(b *Board, p Player) bool {
	king, ok := b.KingSquare(p)
	if !ok {
		return false
	}
	return IsSquareAttacked(b, king, p.Opposite())
}
