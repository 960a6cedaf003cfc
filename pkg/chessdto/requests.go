package chessdto

// CreateMatchRequest starts a match directly against a known opponent.
type CreateMatchRequest struct {
	Name         string `json:"name"`
	OpponentID   string `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
	// Color is the caller's side: "white", "black" or "random".
	Color string `json:"color"`
}

type MakeLobbyRequest struct {
	Name string `json:"name"`
}

type JoinLobbyRequest struct {
	Name string `json:"name"`
}

// DrawRequest offers a draw, or accepts the opponent's pending offer when Accept is set.
type DrawRequest struct {
	Accept bool `json:"accept"`
}

type SetURLRequest struct {
	URL string `json:"url"`
}
