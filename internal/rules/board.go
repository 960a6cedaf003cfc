package rules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Player identifies a side. It is also used as a cell owner and as the turn marker.
type Player uint8

const (
	White Player = iota
	Black
)

func (p Player) Opposite() Player {
	if p == White {
		return Black
	}
	return White
}

func (p Player) String() string {
	if p == White {
		return "white"
	}
	return "black"
}

func (p Player) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Player) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "white", "w":
		*p = White
	case "black", "b":
		*p = Black
	default:
		return fmt.Errorf("unknown player %q", string(b))
	}
	return nil
}

// Piece is the kind of a chess man. NoPiece marks an empty cell.
type Piece uint8

const (
	NoPiece Piece = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceNames = [...]string{"none", "pawn", "knight", "bishop", "rook", "queen", "king"}

const pieceLetters = ".PNBRQK"

func (p Piece) String() string {
	if int(p) < len(pieceNames) {
		return pieceNames[p]
	}
	return fmt.Sprintf("piece(%d)", uint8(p))
}

// Letter returns the upper-case letter of the piece, '.' for NoPiece.
func (p Piece) Letter() byte {
	if int(p) < len(pieceLetters) {
		return pieceLetters[p]
	}
	return '?'
}

func (p Piece) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Piece) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, name := range pieceNames {
		if name == s {
			*p = Piece(i)
			return nil
		}
	}
	return fmt.Errorf("unknown piece %q", string(b))
}

// Cell is one board square. A cell is empty iff Kind is NoPiece.
type Cell struct {
	Kind  Piece
	Owner Player
}

func (c Cell) Empty() bool { return c.Kind == NoPiece }

// Letter renders the cell FEN-style: upper case for White, lower case for Black, '.' when empty.
func (c Cell) Letter() byte {
	if c.Empty() {
		return '.'
	}
	l := c.Kind.Letter()
	if c.Owner == Black {
		l += 'a' - 'A'
	}
	return l
}

func cellFromLetter(l byte) (Cell, error) {
	if l == '.' {
		return Cell{}, nil
	}
	owner := White
	upper := l
	if l >= 'a' && l <= 'z' {
		owner = Black
		upper = l - ('a' - 'A')
	}
	idx := strings.IndexByte(pieceLetters, upper)
	if idx <= 0 {
		return Cell{}, fmt.Errorf("unknown piece letter %q", l)
	}
	return Cell{Kind: Piece(idx), Owner: owner}, nil
}

// Square is a board coordinate. Rank 0 is White's back rank, File 0 is the a-file.
type Square struct {
	Rank int `json:"rank"`
	File int `json:"file"`
}

func Sq(rank, file int) Square { return Square{Rank: rank, File: file} }

func (s Square) OnBoard() bool {
	return s.Rank >= 0 && s.Rank < 8 && s.File >= 0 && s.File < 8
}

func (s Square) String() string {
	if !s.OnBoard() {
		return fmt.Sprintf("(%d,%d)", s.Rank, s.File)
	}
	return string([]byte{byte('a' + s.File), byte('1' + s.Rank)})
}

// ParseSquare reads algebraic coordinates such as "e2".
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return Square{Rank: int(s[1] - '1'), File: int(s[0] - 'a')}, nil
}

// Board is the 8x8 grid indexed [rank][file].
type Board [8][8]Cell

func (b *Board) At(sq Square) Cell { return b[sq.Rank][sq.File] }

func (b *Board) Set(sq Square, c Cell) { b[sq.Rank][sq.File] = c }

func (b *Board) Clear(sq Square) { b[sq.Rank][sq.File] = Cell{} }

// KingSquare locates the king owned by p.
func (b *Board) KingSquare(p Player) (Square, bool) {
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if c := b[r][f]; c.Kind == King && c.Owner == p {
				return Square{Rank: r, File: f}, true
			}
		}
	}
	return Square{}, false
}

// Rows renders the board as eight strings, rank 8 first.
func (b *Board) Rows() []string {
	rows := make([]string, 8)
	for r := 7; r >= 0; r-- {
		line := make([]byte, 8)
		for f := 0; f < 8; f++ {
			line[f] = b[r][f].Letter()
		}
		rows[7-r] = string(line)
	}
	return rows
}

func (b *Board) String() string { return strings.Join(b.Rows(), "\n") }

// ParseBoard builds a board from eight rows, rank 8 first, using the letters produced by Rows.
func ParseBoard(rows ...string) (Board, error) {
	var b Board
	if len(rows) != 8 {
		return b, fmt.Errorf("board needs 8 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != 8 {
			return b, fmt.Errorf("row %d: need 8 cells, got %d", i+1, len(row))
		}
		for f := 0; f < 8; f++ {
			c, err := cellFromLetter(row[f])
			if err != nil {
				return b, fmt.Errorf("row %d: %w", i+1, err)
			}
			b[7-i][f] = c
		}
	}
	return b, nil
}

func (b Board) MarshalJSON() ([]byte, error) { return json.Marshal(b.Rows()) }

func (b *Board) UnmarshalJSON(data []byte) error {
	var rows []string
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := ParseBoard(rows...)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// GameStatus is the lifecycle of a game. Everything but Ongoing is terminal.
type GameStatus uint8

const (
	Ongoing GameStatus = iota
	Checkmate
	Stalemate
	Draw
)

var statusNames = [...]string{"ongoing", "checkmate", "stalemate", "draw"}

func (s GameStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s GameStatus) Terminal() bool { return s != Ongoing }

func (s GameStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *GameStatus) UnmarshalText(b []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(b)))
	for i, name := range statusNames {
		if name == v {
			*s = GameStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown game status %q", string(b))
}

// Handle is an opaque external account identity.
type Handle string

type Players struct {
	White Handle `json:"white"`
	Black Handle `json:"black"`
}

// GameState is the full state the host persists per match.
type GameState struct {
	Board   Board      `json:"board"`
	Turn    Player     `json:"turn"`
	Players Players    `json:"players"`
	Status  GameStatus `json:"status"`
}

// PlayerOf maps an account handle to the color it plays.
func (g GameState) PlayerOf(h Handle) (Player, bool) {
	if h == "" {
		return White, false
	}
	switch h {
	case g.Players.White:
		return White, true
	case g.Players.Black:
		return Black, true
	}
	return White, false
}

// Handle returns the account playing p.
func (g GameState) Handle(p Player) Handle {
	if p == White {
		return g.Players.White
	}
	return g.Players.Black
}

// ChessMove is a from→to pair. It carries no piece or promotion information.
type ChessMove struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

func (m ChessMove) String() string { return m.From.String() + m.To.String() }

// ParseMove reads coordinate notation such as "e2e4".
func ParseMove(s string) (ChessMove, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 {
		return ChessMove{}, fmt.Errorf("invalid move %q", s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return ChessMove{}, err
	}
	to, err := ParseSquare(s[2:])
	if err != nil {
		return ChessMove{}, err
	}
	return ChessMove{From: from, To: to}, nil
}

var backRank = [8]Piece{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StandardBoard returns the initial chess layout.
func StandardBoard() Board {
	var b Board
	for f := 0; f < 8; f++ {
		b[0][f] = Cell{Kind: backRank[f], Owner: White}
		b[1][f] = Cell{Kind: Pawn, Owner: White}
		b[6][f] = Cell{Kind: Pawn, Owner: Black}
		b[7][f] = Cell{Kind: backRank[f], Owner: Black}
	}
	return b
}

// NewGame creates a fresh game with White to move.
func NewGame(white, black Handle) GameState {
	return GameState{
		Board:   StandardBoard(),
		Turn:    White,
		Players: Players{White: white, Black: black},
		Status:  Ongoing,
	}
}
