package rules

// Direction is the axis a sliding move travels along.
type Direction uint8

const (
	Horizontal Direction = iota
	Vertical
	Diagonal
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Diagonal:
		return "diagonal"
	}
	return "unknown"
}

// IsPathClear reports whether every square strictly between from and to is empty.
// It returns false when from and to do not lie on the given axis.
func IsPathClear(b *Board, from, to Square, dir Direction) bool {
	dr := to.Rank - from.Rank
	df := to.File - from.File

	switch dir {
	case Horizontal:
		if dr != 0 {
			return false
		}
	case Vertical:
		if df != 0 {
			return false
		}
	case Diagonal:
		if abs(dr) != abs(df) {
			return false
		}
	default:
		return false
	}

	stepR, stepF := sign(dr), sign(df)
	r, f := from.Rank+stepR, from.File+stepF
	for r != to.Rank || f != to.File {
		if !b[r][f].Empty() {
			return false
		}
		r += stepR
		f += stepF
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
