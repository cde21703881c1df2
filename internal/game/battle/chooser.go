package battle

import (
	"context"
	"errors"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
	"github.com/cory-johannsen/monsterbattle/internal/game/move"
)

// ErrDecisionFailed wraps chooser failures. The session is left untouched.
var ErrDecisionFailed = errors.New("move decision failed")

// Decision is everything a chooser sees when picking a move.
type Decision struct {
	Self           monster.Combatant
	Opponent       monster.Combatant
	SelfHealth     float64
	OpponentHealth float64
	// Moves are the mover's moves in move-set order, resolved from the session catalog.
	Moves []move.Move
}

// Choice is a chooser's pick. Reason is optional free text.
type Choice struct {
	Move   string
	Reason string
}

// Chooser selects a move for the side to act.
//
// Implementations may perform I/O and must honour ctx.
type Chooser interface {
	ChooseMove(ctx context.Context, d Decision) (Choice, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, d Decision) (Choice, error)

// ChooseMove calls f.
func (f ChooserFunc) ChooseMove(ctx context.Context, d Decision) (Choice, error) {
	return f(ctx, d)
}

// RandomChooser picks uniformly among the mover's moves.
type RandomChooser struct {
	src dice.Source
}

// NewRandomChooser returns a RandomChooser drawing from src.
//
// Precondition: src must be non-nil.
func NewRandomChooser(src dice.Source) *RandomChooser {
	return &RandomChooser{src: src}
}

// ChooseMove returns one of d.Moves with equal probability and no reason.
//
// Postcondition: Returns an error only when d.Moves is empty.
func (r *RandomChooser) ChooseMove(_ context.Context, d Decision) (Choice, error) {
	if len(d.Moves) == 0 {
		return Choice{}, ErrNoMovesAvailable
	}
	return Choice{Move: d.Moves[r.src.Intn(len(d.Moves))].Name}, nil
}
