package rules

// Apply validates mv for the side on turn and returns the resulting state.
// The input state is left untouched; on error the returned state equals the input.
func Apply(state GameState, mv ChessMove) (GameState, error) {
	if state.Status.Terminal() {
		return state, reject(mv, ErrGameAlreadyOver)
	}
	if err := Validate(state, mv, state.Turn); err != nil {
		return state, err
	}

	next := state
	movePiece(&next.Board, mv)
	next.Turn = state.Turn.Opposite()
	next.Status = Classify(next)
	return next, nil
}

// DeclareDraw ends an ongoing game as a draw. Draws are only ever triggered by the host.
func DeclareDraw(state GameState) (GameState, error) {
	if state.Status.Terminal() {
		return state, ErrGameAlreadyOver
	}
	state.Status = Draw
	return state, nil
}
