package tasks_test

import (
	"testing"

	"github.com/agentplane/agentplane/internal/tasks"
)

func TestTaskStatusValidate(t *testing.T) {
	for _, status := range tasks.Statuses() {
		if err := status.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", status, err)
		}
	}
	if err := tasks.TaskStatus("paused").Validate(); err == nil {
		t.Error("Validate(paused) = nil, want error")
	}
	if err := tasks.TaskStatus("").Validate(); err == nil {
		t.Error("Validate(empty) = nil, want error")
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	tests := []struct {
		status   tasks.TaskStatus
		terminal bool
	}{
		{tasks.StatusPending, false},
		{tasks.StatusRunning, false},
		{tasks.StatusCompleted, true},
		{tasks.StatusFailed, true},
		{tasks.StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]tasks.TaskStatus]bool{
		{tasks.StatusPending, tasks.StatusRunning}:   true,
		{tasks.StatusPending, tasks.StatusCancelled}: true,
		{tasks.StatusRunning, tasks.StatusCompleted}: true,
		{tasks.StatusRunning, tasks.StatusFailed}:    true,
		{tasks.StatusRunning, tasks.StatusCancelled}: true,
	}

	for _, from := range tasks.Statuses() {
		for _, to := range tasks.Statuses() {
			want := allowed[[2]tasks.TaskStatus{from, to}]
			if got := tasks.CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTaskPriorityValidate(t *testing.T) {
	for _, priority := range []tasks.TaskPriority{
		tasks.PriorityLow, tasks.PriorityNormal, tasks.PriorityHigh, tasks.PriorityCritical,
	} {
		if err := priority.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", priority, err)
		}
	}
	if err := tasks.TaskPriority("urgent").Validate(); err == nil {
		t.Error("Validate(urgent) = nil, want error")
	}
}

func TestTaskTypeValidate(t *testing.T) {
	if err := tasks.TypeTextGeneration.Validate(); err != nil {
		t.Errorf("Validate(text_generation) = %v, want nil", err)
	}
	// Custom tags are allowed.
	if err := tasks.TaskType("custom_pipeline").Validate(); err != nil {
		t.Errorf("Validate(custom_pipeline) = %v, want nil", err)
	}
	if err := tasks.TaskType("").Validate(); err == nil {
		t.Error("Validate(empty) = nil, want error")
	}
}
