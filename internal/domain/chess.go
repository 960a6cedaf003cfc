package domain

import "time"

// MatchResult is the archived record of a finished match.
type MatchResult struct {
	ID        int64
	MatchID   string
	WhiteID   string
	WhiteName string
	BlackID   string
	BlackName string
	// Result is "white", "black" or "draw".
	Result       string
	ResultMethod string
	MovesUCI     []string
	MovesSAN     []string
	PGN          string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// Involves reports whether userID played in the match.
func (r *MatchResult) Involves(userID string) bool {
	return r != nil && userID != "" && (r.WhiteID == userID || r.BlackID == userID)
}
