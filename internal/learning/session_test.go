package learning_test

import (
	"testing"

	"github.com/agentplane/agentplane/internal/learning"
)

func TestSessionTypeValidate(t *testing.T) {
	for _, st := range []learning.SessionType{
		learning.TypeSupervised, learning.TypeUnsupervised, learning.TypeReinforcement,
		learning.TypeTransfer, learning.TypeFineTuning,
	} {
		if err := st.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", st, err)
		}
	}
	if err := learning.SessionType("osmosis").Validate(); err == nil {
		t.Error("Validate(osmosis) = nil, want error")
	}
}

func TestSessionStatusValidate(t *testing.T) {
	for _, status := range learning.Statuses() {
		if err := status.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", status, err)
		}
	}
	if err := learning.SessionStatus("idle").Validate(); err == nil {
		t.Error("Validate(idle) = nil, want error")
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	tests := []struct {
		status   learning.SessionStatus
		terminal bool
	}{
		{learning.StatusPreparing, false},
		{learning.StatusTraining, false},
		{learning.StatusEvaluating, false},
		{learning.StatusCompleted, true},
		{learning.StatusFailed, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestSessionCanTransition(t *testing.T) {
	allowed := map[[2]learning.SessionStatus]bool{
		{learning.StatusPreparing, learning.StatusTraining}:   true,
		{learning.StatusPreparing, learning.StatusFailed}:     true,
		{learning.StatusTraining, learning.StatusEvaluating}:  true,
		{learning.StatusTraining, learning.StatusFailed}:      true,
		{learning.StatusEvaluating, learning.StatusCompleted}: true,
		{learning.StatusEvaluating, learning.StatusFailed}:    true,
	}

	for _, from := range learning.Statuses() {
		for _, to := range learning.Statuses() {
			want := allowed[[2]learning.SessionStatus{from, to}]
			if got := learning.CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}
