package engine

import (
	"errors"
	"testing"

	"github.com/ppiankov/verifier/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.State
		want     bool
	}{
		{model.StateIterating, model.StateIterating, true},
		{model.StateIterating, model.StateConverged, true},
		{model.StateIterating, model.StateExhausted, true},
		{model.StateConverged, model.StateIterating, false},
		{model.StateExhausted, model.StateIterating, false},
		{model.StateConverged, model.StateExhausted, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestMachine_TerminalStatesAreFinal(t *testing.T) {
	m := newMachine()
	if m.terminal() {
		t.Fatal("a new machine should be iterating")
	}
	if err := m.transition(model.StateConverged); err != nil {
		t.Fatalf("transition to converged: %v", err)
	}
	if !m.terminal() {
		t.Error("converged should be terminal")
	}
	err := m.transition(model.StateIterating)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if m.state != model.StateConverged {
		t.Errorf("failed transition changed state to %s", m.state)
	}
}
