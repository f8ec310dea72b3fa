// Package tasks provides the task aggregate: the domain model with its
// lifecycle state machine, the repository contract and Postgres
// implementation, the task management domain service, and the use-case
// orchestrator.
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType categorizes the work a task performs. Values outside the
// predefined set are treated as custom tags.
type TaskType string

// Predefined task types.
const (
	TypeTextGeneration   TaskType = "text_generation"
	TypeImageGeneration  TaskType = "image_generation"
	TypeDataAnalysis     TaskType = "data_analysis"
	TypeModelTraining    TaskType = "model_training"
	TypeSystemMonitoring TaskType = "system_monitoring"
)

// Validate checks that the type is non-empty. Custom tags are allowed.
func (t TaskType) Validate() error {
	if t == "" {
		return fmt.Errorf("task type required")
	}
	return nil
}

// TaskStatus represents a task's lifecycle state.
type TaskStatus string

// Task status values.
const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
)

// Statuses returns every task status, in statistics reporting order.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled}
}

// Validate checks if the status is a valid task status.
func (s TaskStatus) Validate() error {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid task status: %s", s)
	}
}

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the task lifecycle permits moving from one
// status to another: pending may run or cancel; running may complete, fail,
// or cancel; terminal states absorb.
func CanTransition(from, to TaskStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCancelled
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	default:
		return false
	}
}

// TaskPriority orders tasks for scheduling.
type TaskPriority string

// Task priority values.
const (
	PriorityLow      TaskPriority = "low"
	PriorityNormal   TaskPriority = "normal"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// Validate checks if the priority is a valid task priority.
func (p TaskPriority) Validate() error {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return nil
	default:
		return fmt.Errorf("invalid task priority: %s", p)
	}
}

// Task is an aggregate root owned by an agent. Timestamps follow the
// lifecycle: StartedAt is set when the task leaves pending, CompletedAt only
// in a terminal state. OutputData is present only when completed and
// ErrorMessage only when failed.
type Task struct {
	ID           uuid.UUID       `json:"id"`
	AgentID      uuid.UUID       `json:"agent_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Type         TaskType        `json:"type"`
	Status       TaskStatus      `json:"status"`
	Priority     TaskPriority    `json:"priority"`
	InputData    json.RawMessage `json:"input_data"`
	OutputData   json.RawMessage `json:"output_data,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// CreateTaskRequest contains the data required to create a new task.
// Identity, initial status, and timestamps are assigned by the domain
// service.
type CreateTaskRequest struct {
	AgentID     uuid.UUID       `json:"agent_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        TaskType        `json:"type"`
	Priority    TaskPriority    `json:"priority"`
	InputData   json.RawMessage `json:"input_data"`
}

// Statistics is the fixed-shape per-status count record for tasks.
type Statistics struct {
	TotalTasks     int `json:"total_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	RunningTasks   int `json:"running_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	FailedTasks    int `json:"failed_tasks"`
	CancelledTasks int `json:"cancelled_tasks"`
}
