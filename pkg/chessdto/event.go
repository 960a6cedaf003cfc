package chessdto

import "time"

// ResultEvent is pushed to the configured service URL when a match ends.
type ResultEvent struct {
	Type     string    `json:"type"`
	MatchID  string    `json:"match_id"`
	Status   string    `json:"status"`
	Result   string    `json:"result"`
	Method   string    `json:"method"`
	Winner   string    `json:"winner,omitempty"`
	WhiteID  string    `json:"white_id"`
	BlackID  string    `json:"black_id"`
	MovesSAN []string  `json:"moves_san"`
	EndedAt  time.Time `json:"ended_at"`
}
