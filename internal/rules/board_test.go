package rules

import (
	"encoding/json"
	"testing"
)

func mustBoard(t *testing.T, rows ...string) Board {
	t.Helper()
	b, err := ParseBoard(rows...)
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	return b
}

func stateOf(t *testing.T, turn Player, rows ...string) GameState {
	t.Helper()
	return GameState{
		Board:   mustBoard(t, rows...),
		Turn:    turn,
		Players: Players{White: "w", Black: "b"},
		Status:  Ongoing,
	}
}

func mustMove(t *testing.T, s string) ChessMove {
	t.Helper()
	mv, err := ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return mv
}

func TestStandardBoardRows(t *testing.T) {
	b := StandardBoard()
	want := []string{
		"rnbqkbnr",
		"pppppppp",
		"........",
		"........",
		"........",
		"........",
		"PPPPPPPP",
		"RNBQKBNR",
	}
	got := b.Rows()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %q want %q", i, got[i], want[i])
		}
	}
	parsed := mustBoard(t, want...)
	if parsed != b {
		t.Fatalf("ParseBoard(Rows()) differs from StandardBoard")
	}
	if c := b.At(Sq(0, 4)); c.Kind != King || c.Owner != White {
		t.Fatalf("expected white king on e1, got %+v", c)
	}
	if c := b.At(Sq(6, 0)); c.Kind != Pawn || c.Owner != Black {
		t.Fatalf("expected black pawn on a7, got %+v", c)
	}
}

func TestParseBoardRejectsBadInput(t *testing.T) {
	if _, err := ParseBoard("........"); err == nil {
		t.Fatalf("expected error for short board")
	}
	rows := []string{"........", "........", "........", "...x....", "........", "........", "........", "........"}
	if _, err := ParseBoard(rows...); err == nil {
		t.Fatalf("expected error for unknown letter")
	}
}

func TestSquareAndMoveNotation(t *testing.T) {
	sq, err := ParseSquare("e2")
	if err != nil {
		t.Fatalf("ParseSquare: %v", err)
	}
	if sq != Sq(1, 4) {
		t.Fatalf("e2 parsed as %+v", sq)
	}
	if Sq(7, 7).String() != "h8" {
		t.Fatalf("h8 rendered as %q", Sq(7, 7).String())
	}
	if Sq(8, -1).String() != "(8,-1)" {
		t.Fatalf("off-board square rendered as %q", Sq(8, -1).String())
	}
	mv := mustMove(t, "E2E4")
	if mv.From != Sq(1, 4) || mv.To != Sq(3, 4) || mv.String() != "e2e4" {
		t.Fatalf("unexpected move %+v (%s)", mv, mv)
	}
	for _, bad := range []string{"", "e2", "e2e9", "i1a1", "e2-e4"} {
		if _, err := ParseMove(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestKingSquare(t *testing.T) {
	b := StandardBoard()
	if sq, ok := b.KingSquare(Black); !ok || sq != Sq(7, 4) {
		t.Fatalf("black king at %v ok=%v", sq, ok)
	}
	var empty Board
	if _, ok := empty.KingSquare(White); ok {
		t.Fatalf("empty board should have no king")
	}
}

func TestPlayerOf(t *testing.T) {
	g := NewGame("alice", "bob")
	if p, ok := g.PlayerOf("alice"); !ok || p != White {
		t.Fatalf("alice: %v %v", p, ok)
	}
	if p, ok := g.PlayerOf("bob"); !ok || p != Black {
		t.Fatalf("bob: %v %v", p, ok)
	}
	if _, ok := g.PlayerOf("mallory"); ok {
		t.Fatalf("unknown handle must not map to a color")
	}
	if _, ok := g.PlayerOf(""); ok {
		t.Fatalf("empty handle must not map to a color")
	}
	if g.Handle(Black) != "bob" {
		t.Fatalf("Handle(Black) = %q", g.Handle(Black))
	}
}

func TestGameStateJSON(t *testing.T) {
	g := NewGame("alice", "bob")
	g, err := Apply(g, mustMove(t, "e2e4"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	raw, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded GameState
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != g {
		t.Fatalf("decoded state differs:\n%s\nvs\n%s", decoded.Board.String(), g.Board.String())
	}
	var probe struct {
		Turn   string   `json:"turn"`
		Status string   `json:"status"`
		Board  []string `json:"board"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if probe.Turn != "black" || probe.Status != "ongoing" || probe.Board[4] != "....P..." {
		t.Fatalf("unexpected wire form: %+v", probe)
	}
}
