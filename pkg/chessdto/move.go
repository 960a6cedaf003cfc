package chessdto

// SquareRef is a raw (rank, file) pair; rank 0 is White's back rank.
type SquareRef struct {
	Rank int `json:"rank"`
	File int `json:"file"`
}

// MoveRequest carries either coordinate notation ("e2e4") or raw squares.
type MoveRequest struct {
	Move string     `json:"move,omitempty"`
	From *SquareRef `json:"from,omitempty"`
	To   *SquareRef `json:"to,omitempty"`
}

type MoveResponse struct {
	Match   *MatchView `json:"match"`
	SAN     string     `json:"san"`
	Summary string     `json:"summary,omitempty"`
}

type LegalMovesResponse struct {
	MatchID string   `json:"match_id"`
	Turn    string   `json:"turn"`
	Moves   []string `json:"moves"`
}
