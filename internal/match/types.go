package match

import (
	"strings"
	"time"

	"github.com/park285/oh-my-chess/internal/rules"
)

// Status represents a match lifecycle state at the host level.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusResigned Status = "RESIGNED"
	StatusDraw     Status = "DRAW"
)

// ColorChoice is the side a match creator asks for.
type ColorChoice string

const (
	ColorWhite  ColorChoice = "white"
	ColorBlack  ColorChoice = "black"
	ColorRandom ColorChoice = "random"
)

// ParseColorChoice accepts white/black/random and the w/b short forms. Empty means white.
func ParseColorChoice(s string) (ColorChoice, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "white", "w":
		return ColorWhite, true
	case "black", "b":
		return ColorBlack, true
	case "random", "r":
		return ColorRandom, true
	}
	return "", false
}

// Match is the persisted state of a two-player match.
type Match struct {
	ID          string          `json:"id"`
	State       rules.GameState `json:"state"`
	MovesUCI    []string        `json:"moves_uci"`
	MovesSAN    []string        `json:"moves_san"`
	Status      Status          `json:"status"`
	WhiteID     string          `json:"white_id"`
	WhiteName   string          `json:"white_name"`
	BlackID     string          `json:"black_id"`
	BlackName   string          `json:"black_name"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Winner      string          `json:"winner,omitempty"`
	Outcome     string          `json:"outcome,omitempty"`
	Method      string          `json:"method,omitempty"`
	DrawOfferBy string          `json:"draw_offer_by,omitempty"`
}

// ColorOf maps a caller to the side they play.
func (g *Match) ColorOf(userID string) (rules.Player, bool) {
	if g == nil {
		return rules.White, false
	}
	return g.State.PlayerOf(rules.Handle(userID))
}

func (g *Match) Participant(userID string) bool {
	_, ok := g.ColorOf(userID)
	return ok
}

func (g *Match) Active() bool { return g != nil && g.Status == StatusActive }

// LastMove returns the most recent move, if any.
func (g *Match) LastMove() (rules.ChessMove, bool) {
	if g == nil || len(g.MovesUCI) == 0 {
		return rules.ChessMove{}, false
	}
	mv, err := rules.ParseMove(g.MovesUCI[len(g.MovesUCI)-1])
	if err != nil {
		return rules.ChessMove{}, false
	}
	return mv, true
}

func (g *Match) nameOf(userID string) string {
	switch userID {
	case g.WhiteID:
		return g.WhiteName
	case g.BlackID:
		return g.BlackName
	}
	return ""
}

func (g *Match) opponentOf(userID string) string {
	switch userID {
	case g.WhiteID:
		return g.BlackID
	case g.BlackID:
		return g.WhiteID
	}
	return ""
}

// Errors
var (
	ErrInvalidArgs      = errf("invalid arguments")
	ErrNotFound         = errf("match not found or expired")
	ErrNotParticipant   = errf("user is not a participant of this match")
	ErrConcurrentUpdate = errf("match was updated concurrently; retry")
	ErrNoDrawOffer      = errf("no draw offer from the opponent")
	ErrOwnDrawOffer     = errf("cannot accept your own draw offer")
	ErrSamePlayer       = errf("white and black must be different users")
	ErrPlayerBusy       = errf("player already has an active match")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
