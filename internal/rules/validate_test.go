package rules

import (
	"errors"
	"testing"
)

func TestValidateOutOfBounds(t *testing.T) {
	g := NewGame("w", "b")
	moves := []ChessMove{
		{From: Sq(8, 0), To: Sq(7, 0)},
		{From: Sq(1, 4), To: Sq(1, 8)},
		{From: Sq(-1, 3), To: Sq(0, 3)},
		{From: Sq(0, 0), To: Sq(0, -1)},
		{From: Sq(9, 9), To: Sq(9, 9)},
	}
	for _, mv := range moves {
		err := Validate(g, mv, White)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("%v: got %v, want ErrOutOfBounds", mv, err)
		}
		if errors.Is(err, ErrIllegalPieceMovement) {
			t.Fatalf("%v: out-of-bounds must not surface as illegal movement", mv)
		}
	}
}

func TestValidateGates(t *testing.T) {
	g := NewGame("w", "b")
	over := g
	over.Status = Checkmate

	tests := []struct {
		name  string
		state GameState
		mv    string
		mover Player
		want  error
		code  string
	}{
		{"null move", g, "e2e2", White, ErrNullMove, "null_move"},
		{"game over", over, "e2e4", White, ErrGameAlreadyOver, "game_already_over"},
		{"empty source", g, "e4e5", White, ErrEmptySource, "empty_source"},
		{"moving opponent piece", g, "e7e5", White, ErrWrongMover, "wrong_mover"},
		{"black before white", g, "e7e5", Black, ErrNotYourTurn, "not_your_turn"},
		{"pawn triple push", g, "e2e5", White, ErrIllegalPieceMovement, "illegal_piece_movement"},
		{"rook through own pawn", g, "a1a3", White, ErrIllegalPieceMovement, "illegal_piece_movement"},
		{"knight opening", g, "g1f3", White, nil, ""},
	}
	for _, tt := range tests {
		err := Validate(tt.state, mustMove(t, tt.mv), tt.mover)
		if tt.want == nil {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
			continue
		}
		if Code(err) != tt.code {
			t.Errorf("%s: Code = %q, want %q", tt.name, Code(err), tt.code)
		}
		var me *MoveError
		if !errors.As(err, &me) || me.Move.String() != tt.mv {
			t.Errorf("%s: expected MoveError for %s, got %#v", tt.name, tt.mv, err)
		}
	}
}

func TestValidateIsPure(t *testing.T) {
	g := stateOf(t, White,
		"r......k",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"K.......",
	)
	before := g
	for _, s := range []string{"a1b1", "a1a2", "a1c3", "h8h7"} {
		mv := mustMove(t, s)
		first := Validate(g, mv, White)
		second := Validate(g, mv, White)
		if Code(first) != Code(second) || (first == nil) != (second == nil) {
			t.Fatalf("%s: validation not repeatable: %v vs %v", s, first, second)
		}
	}
	if g != before {
		t.Fatalf("Validate mutated the state")
	}
}

func TestKingMustLeaveRookFile(t *testing.T) {
	g := stateOf(t, White,
		"r......k",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"K.......",
	)
	if err := Validate(g, mustMove(t, "a1b1"), White); err != nil {
		t.Fatalf("a1b1 should escape the check: %v", err)
	}
	if err := Validate(g, mustMove(t, "a1b2"), White); err != nil {
		t.Fatalf("a1b2 should escape the check: %v", err)
	}
	if err := Validate(g, mustMove(t, "a1a2"), White); !errors.Is(err, ErrMovesIntoCheck) {
		t.Fatalf("a1a2 stays on the rook file, got %v", err)
	}
}

func TestPawnDoublePushOnlyFromStart(t *testing.T) {
	g := stateOf(t, White,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"...P....",
		"....K...",
	)
	g, err := Apply(g, mustMove(t, "d2d4"))
	if err != nil {
		t.Fatalf("d2d4: %v", err)
	}
	g, err = Apply(g, mustMove(t, "e8f8"))
	if err != nil {
		t.Fatalf("e8f8: %v", err)
	}
	if err := Validate(g, mustMove(t, "d4d6"), White); !errors.Is(err, ErrIllegalPieceMovement) {
		t.Fatalf("d4d6 after leaving the start rank: got %v", err)
	}
	if err := Validate(g, mustMove(t, "d4d5"), White); err != nil {
		t.Fatalf("d4d5: %v", err)
	}
}

func TestBishopCannotJumpKnight(t *testing.T) {
	g := stateOf(t, White,
		"....k...",
		"........",
		"........",
		"........",
		"...n....",
		"........",
		"........",
		"B......K",
	)
	if err := Validate(g, mustMove(t, "a1e5"), White); !errors.Is(err, ErrIllegalPieceMovement) {
		t.Fatalf("a1e5 jumps d4, got %v", err)
	}
	if err := Validate(g, mustMove(t, "a1d4"), White); err != nil {
		t.Fatalf("a1d4 captures the knight: %v", err)
	}
}

func TestPinnedPieceCannotMove(t *testing.T) {
	g := stateOf(t, White,
		"....r..k",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....B...",
		"....K...",
	)
	if err := Validate(g, mustMove(t, "e2d3"), White); !errors.Is(err, ErrMovesIntoCheck) {
		t.Fatalf("pinned bishop moved: %v", err)
	}
	if err := Validate(g, mustMove(t, "e1d1"), White); err != nil {
		t.Fatalf("king steps off the file: %v", err)
	}
}

func TestSideWithoutKingPassesSafetyGate(t *testing.T) {
	g := stateOf(t, White,
		".......k",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"R.......",
	)
	if err := Validate(g, mustMove(t, "a1a5"), White); err != nil {
		t.Fatalf("a1a5 without a white king: %v", err)
	}
}
