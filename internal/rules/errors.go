package rules

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds          = errors.New("coordinate out of bounds")
	ErrNullMove             = errors.New("source and destination are the same square")
	ErrEmptySource          = errors.New("no piece at source square")
	ErrWrongMover           = errors.New("piece does not belong to mover")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrIllegalPieceMovement = errors.New("illegal piece movement")
	ErrMovesIntoCheck       = errors.New("move leaves own king in check")
	ErrGameAlreadyOver      = errors.New("game already over")
)

// MoveError ties a rejected move to the reason it was rejected.
type MoveError struct {
	Move ChessMove
	Err  error
}

func (e *MoveError) Error() string { return fmt.Sprintf("move %s: %v", e.Move, e.Err) }

func (e *MoveError) Unwrap() error { return e.Err }

func reject(mv ChessMove, err error) error { return &MoveError{Move: mv, Err: err} }

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrOutOfBounds, "out_of_bounds"},
	{ErrNullMove, "null_move"},
	{ErrEmptySource, "empty_source"},
	{ErrWrongMover, "wrong_mover"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrIllegalPieceMovement, "illegal_piece_movement"},
	{ErrMovesIntoCheck, "moves_into_check"},
	{ErrGameAlreadyOver, "game_already_over"},
}

// Code returns a stable snake_case identifier for a rules error, or "" if err is not one.
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}
