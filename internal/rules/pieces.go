package rules

// pawnStartRank and pawnDirection fix the pawn convention: White moves toward rank 7.
func pawnStartRank(p Player) int {
	if p == White {
		return 1
	}
	return 6
}

func pawnDirection(p Player) int {
	if p == White {
		return 1
	}
	return -1
}

// canMove applies the piece-specific rule for the piece on from, ignoring king safety.
// Both squares must be on the board.
func canMove(b *Board, from, to Square) bool {
	mover := b.At(from)
	if mover.Empty() || from == to {
		return false
	}
	if dst := b.At(to); !dst.Empty() && dst.Owner == mover.Owner {
		return false
	}
	switch mover.Kind {
	case King:
		return kingMove(from, to)
	case Queen:
		return queenMove(b, from, to)
	case Rook:
		return rookMove(b, from, to)
	case Bishop:
		return bishopMove(b, from, to)
	case Knight:
		return knightMove(from, to)
	case Pawn:
		return pawnMove(b, mover.Owner, from, to)
	}
	return false
}

// attacks reports whether the piece on from could capture on to.
// Unlike canMove it does not look at what occupies to, so it also answers for empty squares.
func attacks(b *Board, from, to Square) bool {
	attacker := b.At(from)
	if attacker.Empty() || from == to {
		return false
	}
	switch attacker.Kind {
	case King:
		return kingMove(from, to)
	case Queen:
		return queenMove(b, from, to)
	case Rook:
		return rookMove(b, from, to)
	case Bishop:
		return bishopMove(b, from, to)
	case Knight:
		return knightMove(from, to)
	case Pawn:
		return to.Rank-from.Rank == pawnDirection(attacker.Owner) && abs(to.File-from.File) == 1
	}
	return false
}

func kingMove(from, to Square) bool {
	dr, df := abs(to.Rank-from.Rank), abs(to.File-from.File)
	return dr <= 1 && df <= 1 && (dr|df) != 0
}

func knightMove(from, to Square) bool {
	dr, df := abs(to.Rank-from.Rank), abs(to.File-from.File)
	return (dr == 1 && df == 2) || (dr == 2 && df == 1)
}

func rookMove(b *Board, from, to Square) bool {
	switch {
	case from.Rank == to.Rank:
		return IsPathClear(b, from, to, Horizontal)
	case from.File == to.File:
		return IsPathClear(b, from, to, Vertical)
	}
	return false
}

func bishopMove(b *Board, from, to Square) bool {
	if abs(to.Rank-from.Rank) != abs(to.File-from.File) {
		return false
	}
	return IsPathClear(b, from, to, Diagonal)
}

func queenMove(b *Board, from, to Square) bool {
	return rookMove(b, from, to) || bishopMove(b, from, to)
}

func pawnMove(b *Board, owner Player, from, to Square) bool {
	dir := pawnDirection(owner)
	dr := to.Rank - from.Rank
	df := to.File - from.File
	dst := b.At(to)

	switch {
	case df == 0 && dr == dir:
		return dst.Empty()
	case df == 0 && dr == 2*dir:
		if from.Rank != pawnStartRank(owner) {
			return false
		}
		mid := Square{Rank: from.Rank + dir, File: from.File}
		return b.At(mid).Empty() && dst.Empty()
	case abs(df) == 1 && dr == dir:
		return !dst.Empty() && dst.Owner != owner
	}
	return false
}
