package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentplane/agentplane/internal/agents"
	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/internal/security"
	"github.com/google/uuid"
)

const resource = "tasks"

type system struct {
	repo          Repository
	agents        agents.Repository
	service       Service
	orchestration OrchestrationService
	security      security.Service
	logger        *slog.Logger
}

// NewSystem creates the task use-case orchestrator. The agent repository is
// consulted only for existence checks on task creation.
func NewSystem(repo Repository, agentRepo agents.Repository, service Service, orchestration OrchestrationService, sec security.Service, logger *slog.Logger) System {
	return &system{
		repo:          repo,
		agents:        agentRepo,
		service:       service,
		orchestration: orchestration,
		security:      sec,
		logger:        logger.With("usecase", "tasks"),
	}
}

// Create verifies the owning agent exists, materializes the task through the
// domain service, and persists it.
func (s *system) Create(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	if err := s.authorize(ctx, "create"); err != nil {
		return nil, err
	}

	if _, err := s.agents.FindByID(ctx, req.AgentID); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrAgentNotFound, req.AgentID)
		}
		return nil, err
	}

	task, err := s.service.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, task)
}

// Start transitions the task from pending to running.
func (s *system) Start(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.transition(ctx, id, StatusRunning, s.service.StartTask)
}

// Complete transitions the task from running to completed, attaching the
// output payload.
func (s *system) Complete(ctx context.Context, id uuid.UUID, output json.RawMessage) (*Task, error) {
	return s.transition(ctx, id, StatusCompleted, func(ctx context.Context, task *Task) (*Task, error) {
		return s.service.CompleteTask(ctx, task, output)
	})
}

// Fail transitions the task from running to failed, attaching the error
// message.
func (s *system) Fail(ctx context.Context, id uuid.UUID, errorMessage string) (*Task, error) {
	return s.transition(ctx, id, StatusFailed, func(ctx context.Context, task *Task) (*Task, error) {
		return s.service.FailTask(ctx, task, errorMessage)
	})
}

// Cancel transitions the task to cancelled from pending or running.
func (s *system) Cancel(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.transition(ctx, id, StatusCancelled, s.service.CancelTask)
}

// Prioritize changes the task's priority without touching its lifecycle.
func (s *system) Prioritize(ctx context.Context, id uuid.UUID, priority TaskPriority) (*Task, error) {
	if err := s.authorize(ctx, "update"); err != nil {
		return nil, err
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := s.service.PrioritizeTask(ctx, task, priority)
	if err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, next)
}

// Delete checks existence, then removes the task.
func (s *system) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.authorize(ctx, "delete"); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Find returns the task by id.
func (s *system) Find(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByAgent returns the agent's tasks.
func (s *system) FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*Task, error) {
	return s.repo.FindByAgent(ctx, agentID)
}

// FindByStatus returns tasks with the given status.
func (s *system) FindByStatus(ctx context.Context, status TaskStatus) ([]*Task, error) {
	return s.repo.FindByStatus(ctx, status)
}

// FindByPriority returns tasks with the given priority.
func (s *system) FindByPriority(ctx context.Context, priority TaskPriority) ([]*Task, error) {
	return s.repo.FindByPriority(ctx, priority)
}

// PendingTasks returns every pending task.
func (s *system) PendingTasks(ctx context.Context) ([]*Task, error) {
	return s.repo.FindByStatus(ctx, StatusPending)
}

// RunningTasks returns every running task.
func (s *system) RunningTasks(ctx context.Context) ([]*Task, error) {
	return s.repo.FindByStatus(ctx, StatusRunning)
}

// List returns tasks matching the filters, newest first.
func (s *system) List(ctx context.Context, filters Filters) ([]*Task, error) {
	return s.repo.List(ctx, filters)
}

// ListAll returns every task, newest first.
func (s *system) ListAll(ctx context.Context) ([]*Task, error) {
	return s.repo.FindAll(ctx)
}

// Count returns the total number of tasks.
func (s *system) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// CountByStatus returns the number of tasks with the given status.
func (s *system) CountByStatus(ctx context.Context, status TaskStatus) (int, error) {
	return s.repo.CountByStatus(ctx, status)
}

// Statistics assembles per-status counts. One repository call per status
// variant plus the total.
func (s *system) Statistics(ctx context.Context) (*Statistics, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{TotalTasks: total}
	for _, status := range Statuses() {
		count, err := s.repo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		switch status {
		case StatusPending:
			stats.PendingTasks = count
		case StatusRunning:
			stats.RunningTasks = count
		case StatusCompleted:
			stats.CompletedTasks = count
		case StatusFailed:
			stats.FailedTasks = count
		case StatusCancelled:
			stats.CancelledTasks = count
		}
	}
	return stats, nil
}

// BalanceWorkload delegates to the orchestration service.
func (s *system) BalanceWorkload(ctx context.Context) (map[uuid.UUID]int, error) {
	return s.orchestration.BalanceWorkload(ctx)
}

// DetectAgentFailures delegates to the orchestration service.
func (s *system) DetectAgentFailures(ctx context.Context) ([]uuid.UUID, error) {
	return s.orchestration.DetectAgentFailures(ctx)
}

// RedistributeTasks delegates to the orchestration service.
func (s *system) RedistributeTasks(ctx context.Context, failedAgentID uuid.UUID) error {
	return s.orchestration.RedistributeTasks(ctx, failedAgentID)
}

// OptimizeAllocation delegates to the orchestration service.
func (s *system) OptimizeAllocation(ctx context.Context) (map[TaskType][]uuid.UUID, error) {
	return s.orchestration.OptimizeAllocation(ctx)
}

// transition is the shared lifecycle sequence: the task must exist and the
// move must be legal before the domain service computes the next value and
// the repository persists it. The persistence layer is never reached for a
// missing task or an illegal move.
func (s *system) transition(ctx context.Context, id uuid.UUID, target TaskStatus, next func(context.Context, *Task) (*Task, error)) (*Task, error) {
	if err := s.authorize(ctx, "update"); err != nil {
		return nil, err
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(task.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, task.Status, target)
	}

	updated, err := next(ctx, task)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Update(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task transitioned", "id", id, "from", task.Status, "to", stored.Status)
	return stored, nil
}

func (s *system) authorize(ctx context.Context, action string) error {
	principal := security.PrincipalFromContext(ctx)
	if err := s.security.Authorize(ctx, principal, action, resource); err != nil {
		s.logger.Warn("authorization denied", "principal", principal, "action", action)
		return err
	}
	return nil
}
