package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service is the task management domain contract. It materializes new tasks
// and computes the next value of a task for each lifecycle event; transition
// legality is enforced by the orchestrator before these are called.
type Service interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error)
	StartTask(ctx context.Context, task *Task) (*Task, error)
	CompleteTask(ctx context.Context, task *Task, output json.RawMessage) (*Task, error)
	FailTask(ctx context.Context, task *Task, errorMessage string) (*Task, error)
	CancelTask(ctx context.Context, task *Task) (*Task, error)
	PrioritizeTask(ctx context.Context, task *Task, priority TaskPriority) (*Task, error)
}

type service struct {
	now func() time.Time
}

// NewService creates the default task management service.
func NewService() Service {
	return &service{now: time.Now}
}

// CreateTask materializes a new pending task.
func (s *service) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	if req.AgentID == uuid.Nil {
		return nil, fmt.Errorf("%w: agent id required", ErrInvalidRequest)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidRequest)
	}
	if err := req.Type.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if err := priority.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	input := req.InputData
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	return &Task{
		ID:          uuid.New(),
		AgentID:     req.AgentID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Status:      StatusPending,
		Priority:    priority,
		InputData:   input,
		CreatedAt:   s.now().UTC(),
	}, nil
}

// StartTask computes the running task with its start timestamp set.
func (s *service) StartTask(ctx context.Context, task *Task) (*Task, error) {
	next := *task
	next.Status = StatusRunning
	started := s.now().UTC()
	next.StartedAt = &started
	return &next, nil
}

// CompleteTask computes the completed task carrying the output payload.
func (s *service) CompleteTask(ctx context.Context, task *Task, output json.RawMessage) (*Task, error) {
	next := *task
	next.Status = StatusCompleted
	next.OutputData = output
	next.ErrorMessage = nil
	completed := s.now().UTC()
	next.CompletedAt = &completed
	return &next, nil
}

// FailTask computes the failed task carrying the error message.
func (s *service) FailTask(ctx context.Context, task *Task, errorMessage string) (*Task, error) {
	if errorMessage == "" {
		return nil, fmt.Errorf("%w: error message required", ErrInvalidRequest)
	}

	next := *task
	next.Status = StatusFailed
	next.OutputData = nil
	next.ErrorMessage = &errorMessage
	completed := s.now().UTC()
	next.CompletedAt = &completed
	return &next, nil
}

// CancelTask computes the cancelled task.
func (s *service) CancelTask(ctx context.Context, task *Task) (*Task, error) {
	next := *task
	next.Status = StatusCancelled
	completed := s.now().UTC()
	next.CompletedAt = &completed
	return &next, nil
}

// PrioritizeTask computes the task with its new priority.
func (s *service) PrioritizeTask(ctx context.Context, task *Task, priority TaskPriority) (*Task, error) {
	if err := priority.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	next := *task
	next.Priority = priority
	return &next, nil
}
