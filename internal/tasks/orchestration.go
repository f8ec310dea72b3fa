package tasks

import (
	"context"

	"github.com/google/uuid"
)

// OrchestrationService is the agent orchestration contract: workload
// balancing, failure detection, and task redistribution are decided behind
// this interface. The core only sequences calls to it.
type OrchestrationService interface {
	CoordinateAgents(ctx context.Context, taskID uuid.UUID, agentIDs []uuid.UUID) error
	BalanceWorkload(ctx context.Context) (map[uuid.UUID]int, error)
	DetectAgentFailures(ctx context.Context) ([]uuid.UUID, error)
	RedistributeTasks(ctx context.Context, failedAgentID uuid.UUID) error
	OptimizeAllocation(ctx context.Context) (map[TaskType][]uuid.UUID, error)
}

// StaticOrchestration is a fixture implementation returning values injected
// at construction time. Deployments substitute a real scheduler behind
// OrchestrationService.
type StaticOrchestration struct {
	Workload   map[uuid.UUID]int
	Failures   []uuid.UUID
	Allocation map[TaskType][]uuid.UUID
}

// NewStaticOrchestration creates an empty orchestration fixture.
func NewStaticOrchestration() *StaticOrchestration {
	return &StaticOrchestration{
		Workload:   map[uuid.UUID]int{},
		Failures:   []uuid.UUID{},
		Allocation: map[TaskType][]uuid.UUID{},
	}
}

// CoordinateAgents acknowledges the coordination request.
func (o *StaticOrchestration) CoordinateAgents(ctx context.Context, taskID uuid.UUID, agentIDs []uuid.UUID) error {
	return nil
}

// BalanceWorkload returns the injected per-agent workload.
func (o *StaticOrchestration) BalanceWorkload(ctx context.Context) (map[uuid.UUID]int, error) {
	return o.Workload, nil
}

// DetectAgentFailures returns the injected failure list.
func (o *StaticOrchestration) DetectAgentFailures(ctx context.Context) ([]uuid.UUID, error) {
	return o.Failures, nil
}

// RedistributeTasks acknowledges the redistribution request.
func (o *StaticOrchestration) RedistributeTasks(ctx context.Context, failedAgentID uuid.UUID) error {
	return nil
}

// OptimizeAllocation returns the injected type-to-agents allocation.
func (o *StaticOrchestration) OptimizeAllocation(ctx context.Context) (map[TaskType][]uuid.UUID, error) {
	return o.Allocation, nil
}
