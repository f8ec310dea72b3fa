package agents

import (
	"context"
	"log/slog"

	"github.com/agentplane/agentplane/internal/security"
	"github.com/agentplane/agentplane/pkg/pagination"
	"github.com/google/uuid"
)

const resource = "agents"

type system struct {
	repo     Repository
	service  Service
	security security.Service
	logger   *slog.Logger
}

// NewSystem creates the agent use-case orchestrator. It composes the
// repository, the management domain service, and the security boundary;
// all three are injected so tests can substitute in-memory doubles.
func NewSystem(repo Repository, service Service, sec security.Service, logger *slog.Logger) System {
	return &system{
		repo:     repo,
		service:  service,
		security: sec,
		logger:   logger.With("usecase", "agents"),
	}
}

// Create validates the request through the domain service, materializes the
// agent, and persists it.
func (s *system) Create(ctx context.Context, req CreateAgentRequest) (*Agent, error) {
	if err := s.authorize(ctx, "create"); err != nil {
		return nil, err
	}

	if err := s.service.ValidateConfiguration(ctx, req.Configuration); err != nil {
		return nil, err
	}

	agent, err := s.service.CreateAgent(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, agent)
}

// Find returns the aggregate by id.
func (s *system) Find(ctx context.Context, id uuid.UUID) (*Agent, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByName returns the aggregate by its unique name.
func (s *system) FindByName(ctx context.Context, name string) (*Agent, error) {
	return s.repo.FindByName(ctx, name)
}

// List returns a page of aggregates matching the filters.
func (s *system) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error) {
	return s.repo.List(ctx, page, filters)
}

// ListAll returns every aggregate, newest first.
func (s *system) ListAll(ctx context.Context) ([]*Agent, error) {
	return s.repo.FindAll(ctx)
}

// FindByType returns aggregates of the given type.
func (s *system) FindByType(ctx context.Context, agentType AgentType) ([]*Agent, error) {
	return s.repo.FindByType(ctx, agentType)
}

// FindByStatus returns aggregates with the given status.
func (s *system) FindByStatus(ctx context.Context, status AgentStatus) ([]*Agent, error) {
	return s.repo.FindByStatus(ctx, status)
}

// UpdateStatus looks up the agent, asks the domain service for its next
// value, and persists the result.
func (s *system) UpdateStatus(ctx context.Context, id uuid.UUID, status AgentStatus) (*Agent, error) {
	return s.mutate(ctx, id, func(ctx context.Context, agent *Agent) (*Agent, error) {
		return s.service.UpdateStatus(ctx, agent, status)
	})
}

// AddCapability adds or replaces a capability on the agent.
func (s *system) AddCapability(ctx context.Context, id uuid.UUID, capability Capability) (*Agent, error) {
	return s.mutate(ctx, id, func(ctx context.Context, agent *Agent) (*Agent, error) {
		return s.service.AddCapability(ctx, agent, capability)
	})
}

// RemoveCapability removes the named capability from the agent.
func (s *system) RemoveCapability(ctx context.Context, id uuid.UUID, name string) (*Agent, error) {
	return s.mutate(ctx, id, func(ctx context.Context, agent *Agent) (*Agent, error) {
		return s.service.RemoveCapability(ctx, agent, name)
	})
}

// UpdateConfiguration validates and replaces the agent's configuration.
func (s *system) UpdateConfiguration(ctx context.Context, id uuid.UUID, cfg Configuration) (*Agent, error) {
	if err := s.service.ValidateConfiguration(ctx, cfg); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(ctx context.Context, agent *Agent) (*Agent, error) {
		return s.service.UpdateConfiguration(ctx, agent, cfg)
	})
}

// Delete checks existence, then removes the aggregate.
func (s *system) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.authorize(ctx, "delete"); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Count returns the total number of agents.
func (s *system) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Statistics assembles per-status counts. One repository call per status
// variant plus the total.
func (s *system) Statistics(ctx context.Context) (*Statistics, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{TotalAgents: total}
	for _, status := range Statuses() {
		count, err := s.repo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		switch status {
		case StatusActive:
			stats.ActiveAgents = count
		case StatusInactive:
			stats.InactiveAgents = count
		case StatusTraining:
			stats.TrainingAgents = count
		case StatusError:
			stats.ErrorAgents = count
		case StatusMaintenance:
			stats.MaintenanceAgents = count
		}
	}
	return stats, nil
}

// mutate is the shared transition sequence: authorize, load (NotFound gates
// the mutation), compute the next value via the domain service, persist.
func (s *system) mutate(ctx context.Context, id uuid.UUID, next func(context.Context, *Agent) (*Agent, error)) (*Agent, error) {
	if err := s.authorize(ctx, "update"); err != nil {
		return nil, err
	}

	agent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := next(ctx, agent)
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
