package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/agentplane/agentplane/internal/agents"
	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/internal/security"
	"github.com/google/uuid"
)

const resource = "learning"

type system struct {
	repo     Repository
	agents   agents.Repository
	service  Service
	security security.Service
	logger   *slog.Logger
}

// NewSystem creates the learning use-case orchestrator. The agent repository
// is consulted only for existence checks on session creation.
func NewSystem(repo Repository, agentRepo agents.Repository, service Service, sec security.Service, logger *slog.Logger) System {
	return &system{
		repo:     repo,
		agents:   agentRepo,
		service:  service,
		security: sec,
		logger:   logger.With("usecase", "learning"),
	}
}

// Start verifies the owning agent exists, materializes a preparing session
// through the domain service, and persists it.
func (s *system) Start(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	if err := s.authorize(ctx, "create"); err != nil {
		return nil, err
	}

	if _, err := s.agents.FindByID(ctx, req.AgentID); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrAgentNotFound, req.AgentID)
		}
		return nil, err
	}

	session, err := s.service.CreateSession(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, session)
}

// BeginTraining transitions the session from preparing to training.
func (s *system) BeginTraining(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.transition(ctx, id, StatusTraining, s.service.BeginTraining)
}

// BeginEvaluation transitions the session from training to evaluating.
func (s *system) BeginEvaluation(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.transition(ctx, id, StatusEvaluating, s.service.BeginEvaluation)
}

// Complete transitions the session from evaluating to completed, computing
// and attaching its final metrics.
func (s *system) Complete(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.transition(ctx, id, StatusCompleted, func(ctx context.Context, session *Session) (*Session, error) {
		metrics, err := s.service.CalculateMetrics(ctx, session)
		if err != nil {
			return nil, err
		}
		return s.service.CompleteSession(ctx, session, metrics)
	})
}

// Fail transitions the session to failed from any non-terminal state.
func (s *system) Fail(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.transition(ctx, id, StatusFailed, s.service.FailSession)
}

// RecordMetrics updates the session's progress metrics. Terminal sessions
// are immutable.
func (s *system) RecordMetrics(ctx context.Context, id uuid.UUID, metrics Metrics) (*Session, error) {
	return s.mutate(ctx, id, func(ctx context.Context, session *Session) (*Session, error) {
		return s.service.RecordMetrics(ctx, session, metrics)
	})
}

// SaveSnapshot attaches a model snapshot to the session. Terminal sessions
// are immutable.
func (s *system) SaveSnapshot(ctx context.Context, id uuid.UUID, snapshot ModelSnapshot) (*Session, error) {
	return s.mutate(ctx, id, func(ctx context.Context, session *Session) (*Session, error) {
		return s.service.AttachSnapshot(ctx, session, snapshot)
	})
}

// Delete checks existence, then removes the session.
func (s *system) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.authorize(ctx, "delete"); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Find returns the session by id.
func (s *system) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByAgent returns the agent's sessions.
func (s *system) FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*Session, error) {
	return s.repo.FindByAgent(ctx, agentID)
}

// FindByType returns sessions of the given type.
func (s *system) FindByType(ctx context.Context, sessionType SessionType) ([]*Session, error) {
	return s.repo.FindByType(ctx, sessionType)
}

// FindByStatus returns sessions with the given status.
func (s *system) FindByStatus(ctx context.Context, status SessionStatus) ([]*Session, error) {
	return s.repo.FindByStatus(ctx, status)
}

// History returns the agent's most recent sessions, newest first, truncated
// to the caller-supplied limit.
func (s *system) History(ctx context.Context, agentID uuid.UUID, limit int) ([]*Session, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: history limit must be positive", ErrInvalidRequest)
	}
	return s.repo.History(ctx, agentID, limit)
}

// ActiveSessions returns every non-terminal session, newest first.
func (s *system) ActiveSessions(ctx context.Context) ([]*Session, error) {
	var active []*Session
	for _, status := range []SessionStatus{StatusPreparing, StatusTraining, StatusEvaluating} {
		sessions, err := s.repo.FindByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		active = append(active, sessions...)
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

// ListAll returns every session, newest first.
func (s *system) ListAll(ctx context.Context) ([]*Session, error) {
	return s.repo.FindAll(ctx)
}

// Count returns the total number of sessions.
func (s *system) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// CountByStatus returns the number of sessions with the given status.
func (s *system) CountByStatus(ctx context.Context, status SessionStatus) (int, error) {
	return s.repo.CountByStatus(ctx, status)
}

// Statistics assembles per-status counts. One repository call per status
// variant plus the total.
func (s *system) Statistics(ctx context.Context) (*Statistics, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{TotalSessions: total}
	for _, status := range Statuses() {
		count, err := s.repo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		switch status {
		case StatusPreparing:
			stats.PreparingSessions = count
		case StatusTraining:
			stats.TrainingSessions = count
		case StatusEvaluating:
			stats.EvaluatingSessions = count
		case StatusCompleted:
			stats.CompletedSessions = count
		case StatusFailed:
			stats.FailedSessions = count
		}
	}
	return stats, nil
}

// EvaluatePerformance reduces the session's recorded metrics to one score.
func (s *system) EvaluatePerformance(ctx context.Context, id uuid.UUID) (float64, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.service.EvaluateModelPerformance(ctx, session)
}

// transition is the shared lifecycle sequence: the session must exist and
// the move must be legal before the domain service computes the next value
// and the repository persists it.
func (s *system) transition(ctx context.Context, id uuid.UUID, target SessionStatus, next func(context.Context, *Session) (*Session, error)) (*Session, error) {
	if err := s.authorize(ctx, "update"); err != nil {
		return nil, err
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(session.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, session.Status, target)
	}

	updated, err := next(ctx, session)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Update(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session transitioned", "id", id, "from", session.Status, "to", stored.Status)
	return stored, nil
}

// mutate is the shared non-lifecycle update sequence; terminal sessions are
// immutable.
func (s *system) mutate(ctx context.Context, id uuid.UUID, next func(context.Context, *Session) (*Session, error)) (*Session, error) {
	if err := s.authorize(ctx, "update"); err != nil {
		return nil, err
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Status.Terminal() {
		return nil, fmt.Errorf("%w: session %s is %s", ErrIllegalTransition, id, session.Status)
	}

	updated, err := next(ctx, session)
	if err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, updated)
}

func (s *system) authorize(ctx context.Context, action string) error {
	principal := security.PrincipalFromContext(ctx)
	if err := s.security.Authorize(ctx, principal, action, resource); err != nil {
		s.logger.Warn("authorization denied", "principal", principal, "action", action)
		return err
	}
	return nil
}
