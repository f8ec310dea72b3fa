package agents

import (
	"context"

	"github.com/agentplane/agentplane/pkg/pagination"
	"github.com/google/uuid"
)

// System is the agent use-case contract exposed to the transport layer.
// Every method is a single logical operation: existence checks, domain
// service calls, and persistence are sequenced with no partial retry.
type System interface {
	Create(ctx context.Context, req CreateAgentRequest) (*Agent, error)
	Find(ctx context.Context, id uuid.UUID) (*Agent, error)
	FindByName(ctx context.Context, name string) (*Agent, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error)
	ListAll(ctx context.Context) ([]*Agent, error)
	FindByType(ctx context.Context, agentType AgentType) ([]*Agent, error)
	FindByStatus(ctx context.Context, status AgentStatus) ([]*Agent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status AgentStatus) (*Agent, error)
	AddCapability(ctx context.Context, id uuid.UUID, capability Capability) (*Agent, error)
	RemoveCapability(ctx context.Context, id uuid.UUID, name string) (*Agent, error)
	UpdateConfiguration(ctx context.Context, id uuid.UUID, cfg Configuration) (*Agent, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	Statistics(ctx context.Context) (*Statistics, error)
}
