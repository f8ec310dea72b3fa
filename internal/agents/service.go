package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service is the agent management domain contract. It decides business-rule
// outcomes (materializing new agents, computing the next value of an
// existing one) but never persists anything; the orchestrator sequences its
// results into the repository.
type Service interface {
	CreateAgent(ctx context.Context, req CreateAgentRequest) (*Agent, error)
	UpdateStatus(ctx context.Context, agent *Agent, status AgentStatus) (*Agent, error)
	AddCapability(ctx context.Context, agent *Agent, capability Capability) (*Agent, error)
	RemoveCapability(ctx context.Context, agent *Agent, name string) (*Agent, error)
	UpdateConfiguration(ctx context.Context, agent *Agent, cfg Configuration) (*Agent, error)
	ValidateConfiguration(ctx context.Context, cfg Configuration) error
}

type service struct {
	now func() time.Time
}

// NewService creates the default agent management service.
func NewService() Service {
	return &service{now: time.Now}
}

// CreateAgent materializes a new agent: validates the request, assigns
// identity and timestamps, and defaults the status to active.
func (s *service) CreateAgent(ctx context.Context, req CreateAgentRequest) (*Agent, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidRequest)
	}
	if err := req.Type.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := validateCapabilities(req.Capabilities); err != nil {
		return nil, err
	}
	if err := s.ValidateConfiguration(ctx, req.Configuration); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return &Agent{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		Status:        StatusActive,
		Capabilities:  req.Capabilities,
		Configuration: req.Configuration,
		Metadata:      metadata,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// UpdateStatus computes the agent with its new status. Agent statuses are
// independently settable; no transition is illegal.
func (s *service) UpdateStatus(ctx context.Context, agent *Agent, status AgentStatus) (*Agent, error) {
	if err := status.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	next := *agent
	next.Status = status
	next.UpdatedAt = s.now().UTC()
	return &next, nil
}

// AddCapability computes the agent with the capability added, replacing any
// existing capability with the same name.
func (s *service) AddCapability(ctx context.Context, agent *Agent, capability Capability) (*Agent, error) {
	if capability.Name == "" {
		return nil, fmt.Errorf("%w: capability name required", ErrInvalidRequest)
	}

	next := *agent
	next.Capabilities = append([]Capability(nil), agent.Capabilities...)
	next.SetCapability(capability)
	next.UpdatedAt = s.now().UTC()
	return &next, nil
}

// RemoveCapability computes the agent without the named capability.
func (s *service) RemoveCapability(ctx context.Context, agent *Agent, name string) (*Agent, error) {
	next := *agent
	next.Capabilities = append([]Capability(nil), agent.Capabilities...)
	if !next.DropCapability(name) {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityNotFound, name)
	}
	next.UpdatedAt = s.now().UTC()
	return &next, nil
}

// UpdateConfiguration computes the agent with the new configuration.
func (s *service) UpdateConfiguration(ctx context.Context, agent *Agent, cfg Configuration) (*Agent, error) {
	if err := s.ValidateConfiguration(ctx, cfg); err != nil {
		return nil, err
	}

	next := *agent
	next.Configuration = cfg
	next.UpdatedAt = s.now().UTC()
	return &next, nil
}

// ValidateConfiguration rejects configurations that cannot be executed.
func (s *service) ValidateConfiguration(ctx context.Context, cfg Configuration) error {
	if cfg.Model.Name == "" {
		return fmt.Errorf("%w: model name required", ErrInvalidConfiguration)
	}
	if cfg.Model.ContextWindow < 0 {
		return fmt.Errorf("%w: context window cannot be negative", ErrInvalidConfiguration)
	}
	if cfg.Execution.MaxConcurrentTasks < 1 {
		return fmt.Errorf("%w: max concurrent tasks must be positive", ErrInvalidConfiguration)
	}
	if cfg.Execution.TimeoutSeconds < 1 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfiguration)
	}
	if cfg.Execution.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", ErrInvalidConfiguration)
	}
	if cfg.Execution.MemoryLimitMB < 1 {
		return fmt.Errorf("%w: memory limit must be positive", ErrInvalidConfiguration)
	}
	if cfg.Security.RateLimit != nil && *cfg.Security.RateLimit < 1 {
		return fmt.Errorf("%w: rate limit must be positive when set", ErrInvalidConfiguration)
	}
	return nil
}

func validateCapabilities(capabilities []Capability) error {
	seen := make(map[string]struct{}, len(capabilities))
	for _, c := range capabilities {
		if c.Name == "" {
			return fmt.Errorf("%w: capability name required", ErrInvalidRequest)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate capability %s", ErrInvalidRequest, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
