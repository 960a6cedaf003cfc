package chessdto

import "time"

// ResultView is one archived match in a player's history.
type ResultView struct {
	MatchID      string    `json:"match_id"`
	WhiteID      string    `json:"white_id"`
	WhiteName    string    `json:"white_name"`
	BlackID      string    `json:"black_id"`
	BlackName    string    `json:"black_name"`
	Result       string    `json:"result"`
	ResultMethod string    `json:"result_method"`
	MovesSAN     []string  `json:"moves_san"`
	PGN          string    `json:"pgn"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMS   int64     `json:"duration_ms"`
}

type HistoryResponse struct {
	Results []ResultView `json:"results"`
}
