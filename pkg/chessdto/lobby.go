package chessdto

import "time"

type LobbyView struct {
	Code        string    `json:"code"`
	State       string    `json:"state"`
	CreatorID   string    `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	MatchID     string    `json:"match_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type LobbyListResponse struct {
	Lobbies []LobbyView `json:"lobbies"`
}

type JoinLobbyResponse struct {
	Started bool       `json:"started"`
	Lobby   LobbyView  `json:"lobby"`
	Match   *MatchView `json:"match,omitempty"`
}
