package tasks_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/agentplane/agentplane/internal/agents"
	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/internal/security"
	"github.com/agentplane/agentplane/internal/tasks"
	"github.com/agentplane/agentplane/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeTaskRepo struct {
	tasks   map[uuid.UUID]*tasks.Task
	updates int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[uuid.UUID]*tasks.Task{}}
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *tasks.Task) (*tasks.Task, error) {
	stored := *task
	r.tasks[task.ID] = &stored
	return task, nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*tasks.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, tasks.ErrNotFound
	}
	found := *task
	return &found, nil
}

func (r *fakeTaskRepo) FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*tasks.Task, error) {
	return r.filter(func(t *tasks.Task) bool { return t.AgentID == agentID }), nil
}

func (r *fakeTaskRepo) FindByStatus(ctx context.Context, status tasks.TaskStatus) ([]*tasks.Task, error) {
	return r.filter(func(t *tasks.Task) bool { return t.Status == status }), nil
}

func (r *fakeTaskRepo) FindByPriority(ctx context.Context, priority tasks.TaskPriority) ([]*tasks.Task, error) {
	return r.filter(func(t *tasks.Task) bool { return t.Priority == priority }), nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context) ([]*tasks.Task, error) {
	return r.filter(func(*tasks.Task) bool { return true }), nil
}

func (r *fakeTaskRepo) List(ctx context.Context, filters tasks.Filters) ([]*tasks.Task, error) {
	return r.filter(func(t *tasks.Task) bool {
		if filters.AgentID != nil && t.AgentID.String() != *filters.AgentID {
			return false
		}
		if filters.Status != nil && t.Status != *filters.Status {
			return false
		}
		if filters.Priority != nil && t.Priority != *filters.Priority {
			return false
		}
		if filters.Type != nil && t.Type != *filters.Type {
			return false
		}
		return true
	}), nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *tasks.Task) (*tasks.Task, error) {
	if _, ok := r.tasks[task.ID]; !ok {
		return nil, tasks.ErrNotFound
	}
	stored := *task
	r.tasks[task.ID] = &stored
	r.updates++
	return task, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) Count(ctx context.Context) (int, error) {
	return len(r.tasks), nil
}

func (r *fakeTaskRepo) CountByStatus(ctx context.Context, status tasks.TaskStatus) (int, error) {
	return len(r.filter(func(t *tasks.Task) bool { return t.Status == status })), nil
}

func (r *fakeTaskRepo) filter(keep func(*tasks.Task) bool) []*tasks.Task {
	results := make([]*tasks.Task, 0)
	for _, task := range r.tasks {
		if keep(task) {
			found := *task
			results = append(results, &found)
		}
	}
	return results
}

type fakeAgentRepo struct {
	agents map[uuid.UUID]*agents.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: map[uuid.UUID]*agents.Agent{}}
}

func (r *fakeAgentRepo) add() uuid.UUID {
	id := uuid.New()
	r.agents[id] = &agents.Agent{ID: id, Name: "agent-" + id.String()[:8], Status: agents.StatusActive}
	return id
}

func (r *fakeAgentRepo) Create(ctx context.Context, agent *agents.Agent) (*agents.Agent, error) {
	r.agents[agent.ID] = agent
	return agent, nil
}

func (r *fakeAgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*agents.Agent, error) {
	agent, ok := r.agents[id]
	if !ok {
		return nil, agents.ErrNotFound
	}
	return agent, nil
}

func (r *fakeAgentRepo) FindByName(ctx context.Context, name string) (*agents.Agent, error) {
	for _, agent := range r.agents {
		if agent.Name == name {
			return agent, nil
		}
	}
	return nil, agents.ErrNotFound
}

func (r *fakeAgentRepo) FindByType(ctx context.Context, agentType agents.AgentType) ([]*agents.Agent, error) {
	return nil, nil
}

func (r *fakeAgentRepo) FindByStatus(ctx context.Context, status agents.AgentStatus) ([]*agents.Agent, error) {
	return nil, nil
}

func (r *fakeAgentRepo) FindAll(ctx context.Context) ([]*agents.Agent, error) {
	results := make([]*agents.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		results = append(results, agent)
	}
	return results, nil
}

func (r *fakeAgentRepo) List(ctx context.Context, page pagination.PageRequest, filters agents.Filters) (*pagination.PageResult[agents.Agent], error) {
	return nil, nil
}

func (r *fakeAgentRepo) Update(ctx context.Context, agent *agents.Agent) (*agents.Agent, error) {
	r.agents[agent.ID] = agent
	return agent, nil
}

func (r *fakeAgentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.agents, id)
	return nil
}

func (r *fakeAgentRepo) Count(ctx context.Context) (int, error) {
	return len(r.agents), nil
}

func (r *fakeAgentRepo) CountByStatus(ctx context.Context, status agents.AgentStatus) (int, error) {
	return 0, nil
}

func newTaskSystem(denied ...string) (tasks.System, *fakeTaskRepo, *fakeAgentRepo) {
	taskRepo := newFakeTaskRepo()
	agentRepo := newFakeAgentRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := tasks.NewSystem(
		taskRepo, agentRepo, tasks.NewService(), tasks.NewStaticOrchestration(),
		security.NewStatic(nil, denied...), logger,
	)
	return sys, taskRepo, agentRepo
}

func createTask(t *testing.T, sys tasks.System, agentID uuid.UUID) *tasks.Task {
	t.Helper()

	task, err := sys.Create(context.Background(), tasks.CreateTaskRequest{
		AgentID:   agentID,
		Name:      "summarize",
		Type:      tasks.TypeTextGeneration,
		InputData: json.RawMessage(`{"prompt": "hello"}`),
	})
	require.NoError(t, err)
	return task
}

func TestCreateRequiresExistingAgent(t *testing.T) {
	sys, taskRepo, _ := newTaskSystem()

	_, err := sys.Create(context.Background(), tasks.CreateTaskRequest{
		AgentID: uuid.New(),
		Name:    "orphan",
		Type:    tasks.TypeTextGeneration,
	})

	require.ErrorIs(t, err, tasks.ErrAgentNotFound)
	require.Empty(t, taskRepo.tasks)
}

func TestCreatePersistsPendingTask(t *testing.T) {
	sys, taskRepo, agentRepo := newTaskSystem()
	agentID := agentRepo.add()

	task := createTask(t, sys, agentID)

	require.Equal(t, tasks.StatusPending, task.Status)
	require.Contains(t, taskRepo.tasks, task.ID)
}

func TestStartMissingTask(t *testing.T) {
	sys, taskRepo, _ := newTaskSystem()

	_, err := sys.Start(context.Background(), uuid.New())

	require.ErrorIs(t, err, tasks.ErrNotFound)
	require.Zero(t, taskRepo.updates, "persistence must not be reached for a missing task")
}

func TestStartPendingTask(t *testing.T) {
	sys, _, agentRepo := newTaskSystem()
	task := createTask(t, sys, agentRepo.add())

	started, err := sys.Start(context.Background(), task.ID)

	require.NoError(t, err)
	require.Equal(t, tasks.StatusRunning, started.Status)
	require.NotNil(t, started.StartedAt)
}

func TestIllegalTransitionsRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("complete a pending task", func(t *testing.T) {
		sys, taskRepo, agentRepo := newTaskSystem()
		task := createTask(t, sys, agentRepo.add())

		_, err := sys.Complete(ctx, task.ID, json.RawMessage(`{}`))

		require.ErrorIs(t, err, tasks.ErrIllegalTransition)
		require.Zero(t, taskRepo.updates, "persistence must not be reached for an illegal move")
	})

	t.Run("fail a pending task", func(t *testing.T) {
		sys, _, agentRepo := newTaskSystem()
		task := createTask(t, sys, agentRepo.add())

		_, err := sys.Fail(ctx, task.ID, "broken")
		require.ErrorIs(t, err, tasks.ErrIllegalTransition)
	})

	t.Run("restart a completed task", func(t *testing.T) {
		sys, _, agentRepo := newTaskSystem()
		task := createTask(t, sys, agentRepo.add())

		_, err := sys.Start(ctx, task.ID)
		require.NoError(t, err)
		_, err = sys.Complete(ctx, task.ID, json.RawMessage(`{}`))
		require.NoError(t, err)

		_, err = sys.Start(ctx, task.ID)
		require.ErrorIs(t, err, tasks.ErrIllegalTransition)
	})

	t.Run("cancel a cancelled task", func(t *testing.T) {
		sys, _, agentRepo := newTaskSystem()
		task := createTask(t, sys, agentRepo.add())

		_, err := sys.Cancel(ctx, task.ID)
		require.NoError(t, err)

		_, err = sys.Cancel(ctx, task.ID)
		require.ErrorIs(t, err, tasks.ErrIllegalTransition)
	})
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newTaskSystem()
	task := createTask(t, sys, agentRepo.add())

	started, err := sys.Start(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, tasks.StatusRunning, started.Status)
	require.NotNil(t, started.StartedAt)

	completed, err := sys.Complete(ctx, task.ID, json.RawMessage(`{"result": "ok"}`))
	require.NoError(t, err)
	require.Equal(t, tasks.StatusCompleted, completed.Status)
	require.JSONEq(t, `{"result": "ok"}`, string(completed.OutputData))
	require.NotNil(t, completed.CompletedAt)

	stats, err := sys.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalTasks)
	require.Equal(t, 1, stats.CompletedTasks)
	require.Zero(t, stats.PendingTasks)
	require.Zero(t, stats.RunningTasks)
	require.Zero(t, stats.FailedTasks)
	require.Zero(t, stats.CancelledTasks)
}

func TestFailRunningTask(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newTaskSystem()
	task := createTask(t, sys, agentRepo.add())

	_, err := sys.Start(ctx, task.ID)
	require.NoError(t, err)

	failed, err := sys.Fail(ctx, task.ID, "model unavailable")
	require.NoError(t, err)
	require.Equal(t, tasks.StatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	require.Equal(t, "model unavailable", *failed.ErrorMessage)
}

func TestPrioritize(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newTaskSystem()
	task := createTask(t, sys, agentRepo.add())

	_, err := sys.Prioritize(ctx, uuid.New(), tasks.PriorityHigh)
	require.ErrorIs(t, err, tasks.ErrNotFound)

	updated, err := sys.Prioritize(ctx, task.ID, tasks.PriorityCritical)
	require.NoError(t, err)
	require.Equal(t, tasks.PriorityCritical, updated.Priority)
	require.Equal(t, tasks.StatusPending, updated.Status)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	sys, taskRepo, agentRepo := newTaskSystem()
	task := createTask(t, sys, agentRepo.add())

	require.ErrorIs(t, sys.Delete(ctx, uuid.New()), tasks.ErrNotFound)

	require.NoError(t, sys.Delete(ctx, task.ID))
	require.NotContains(t, taskRepo.tasks, task.ID)
}

func TestAuthorizationDenied(t *testing.T) {
	ctx := context.Background()
	sys, taskRepo, agentRepo := newTaskSystem("update:tasks")
	task := createTask(t, sys, agentRepo.add())

	_, err := sys.Start(ctx, task.ID)

	require.ErrorIs(t, err, platform.ErrAuthorization)
	require.Zero(t, taskRepo.updates)
}

func TestListFiltered(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newTaskSystem()
	first := agentRepo.add()
	second := agentRepo.add()

	running := createTask(t, sys, first)
	_, err := sys.Start(ctx, running.ID)
	require.NoError(t, err)

	createTask(t, sys, first)
	createTask(t, sys, second)

	all, err := sys.List(ctx, tasks.Filters{})
	require.NoError(t, err)
	require.Len(t, all, 3, "empty filters return every task")

	status := tasks.StatusRunning
	byStatus, err := sys.List(ctx, tasks.Filters{Status: &status})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.Equal(t, running.ID, byStatus[0].ID)

	agentID := first.String()
	byAgent, err := sys.List(ctx, tasks.Filters{AgentID: &agentID})
	require.NoError(t, err)
	require.Len(t, byAgent, 2)
	for _, task := range byAgent {
		require.Equal(t, first, task.AgentID)
	}

	everything, err := sys.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, everything, 3)
}

func TestStatisticsAcrossStatuses(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newTaskSystem()
	agentID := agentRepo.add()

	completed := createTask(t, sys, agentID)
	_, err := sys.Start(ctx, completed.ID)
	require.NoError(t, err)
	_, err = sys.Complete(ctx, completed.ID, json.RawMessage(`{}`))
	require.NoError(t, err)

	running := createTask(t, sys, agentID)
	_, err = sys.Start(ctx, running.ID)
	require.NoError(t, err)

	cancelled := createTask(t, sys, agentID)
	_, err = sys.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	createTask(t, sys, agentID)

	stats, err := sys.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalTasks)
	require.Equal(t, 1, stats.PendingTasks)
	require.Equal(t, 1, stats.RunningTasks)
	require.Equal(t, 1, stats.CompletedTasks)
	require.Equal(t, 1, stats.CancelledTasks)
	require.Zero(t, stats.FailedTasks)
}
