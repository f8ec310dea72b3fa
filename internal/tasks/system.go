package tasks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// System is the task use-case contract exposed to the transport layer.
// Lifecycle transitions are gated on existence and legality before the
// domain service computes the next task value.
type System interface {
	Create(ctx context.Context, req CreateTaskRequest) (*Task, error)
	Start(ctx context.Context, id uuid.UUID) (*Task, error)
	Complete(ctx context.Context, id uuid.UUID, output json.RawMessage) (*Task, error)
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) (*Task, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Task, error)
	Prioritize(ctx context.Context, id uuid.UUID, priority TaskPriority) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Task, error)
	FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*Task, error)
	FindByStatus(ctx context.Context, status TaskStatus) ([]*Task, error)
	FindByPriority(ctx context.Context, priority TaskPriority) ([]*Task, error)
	PendingTasks(ctx context.Context) ([]*Task, error)
	RunningTasks(ctx context.Context) ([]*Task, error)
	List(ctx context.Context, filters Filters) ([]*Task, error)
	ListAll(ctx context.Context) ([]*Task, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status TaskStatus) (int, error)
	Statistics(ctx context.Context) (*Statistics, error)
	BalanceWorkload(ctx context.Context) (map[uuid.UUID]int, error)
	DetectAgentFailures(ctx context.Context) ([]uuid.UUID, error)
	RedistributeTasks(ctx context.Context, failedAgentID uuid.UUID) error
	OptimizeAllocation(ctx context.Context) (map[TaskType][]uuid.UUID, error)
}
