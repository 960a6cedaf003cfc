package lobby

import "time"

// State represents the lifecycle of a lobby.
type State string

const (
	StateOpen    State = "OPEN"
	StateStarted State = "STARTED"
)

// Meta is stored as JSON in Redis under lobby:<code>.
type Meta struct {
	Code      string    `json:"code"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`

	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`

	MatchID string `json:"match_id,omitempty"`
}

type MakeResult struct {
	Code string
	Meta *Meta
}

type JoinResult struct {
	Started bool
	MatchID string
	Meta    *Meta
}

// Errors
var (
	ErrInvalidArgs     = errf("invalid arguments")
	ErrLobbyGone       = errf("lobby not found or expired")
	ErrLobbyStarted    = errf("lobby already started")
	ErrFull            = errf("lobby already has two participants")
	ErrOwnLobby        = errf("cannot join your own lobby")
	ErrPlayerBusy      = errf("player already has an active match")
	ErrCreatorHasLobby = errf("user already has an open lobby")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
