package engine

import (
	"errors"
	"fmt"

	"github.com/ppiankov/verifier/internal/model"
)

// ErrInvalidTransition is returned when the reconcile loop attempts an illegal state change
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrSubjectRequired is returned by Validate and Reconcile for an empty subject
var ErrSubjectRequired = errors.New("subject id is required")

// ValidTransitions lists the legal successors of each state.
// Converged and Exhausted are terminal.
var ValidTransitions = map[model.State][]model.State{
	model.StateIterating: {model.StateIterating, model.StateConverged, model.StateExhausted},
	model.StateConverged: {},
	model.StateExhausted: {},
}

// CanTransition reports whether from may move to to
func CanTransition(from, to model.State) bool {
	for _, next := range ValidTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// machine tracks the state of one reconcile run
type machine struct {
	state model.State
}

func newMachine() *machine {
	return &machine{state: model.StateIterating}
}

func (m *machine) transition(to model.State) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

func (m *machine) terminal() bool {
	return len(ValidTransitions[m.state]) == 0
}
