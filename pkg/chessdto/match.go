package chessdto

import "time"

type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchView is the public shape of a match.
type MatchView struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	RulesStatus string    `json:"rules_status"`
	Turn        string    `json:"turn"`
	InCheck     bool      `json:"in_check"`
	White       PlayerRef `json:"white"`
	Black       PlayerRef `json:"black"`
	Board       []string  `json:"board"`
	MovesUCI    []string  `json:"moves_uci"`
	MovesSAN    []string  `json:"moves_san"`
	MoveCount   int       `json:"move_count"`
	Winner      string    `json:"winner,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Method      string    `json:"method,omitempty"`
	DrawOfferBy string    `json:"draw_offer_by,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
