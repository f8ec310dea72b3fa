package tasks

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
	"github.com/google/uuid"
)

// Repository is the task persistence contract. Tasks are single-table
// aggregates; no dependent collections require reconciliation.
type Repository interface {
	Create(ctx context.Context, task *Task) (*Task, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*Task, error)
	FindByStatus(ctx context.Context, status TaskStatus) ([]*Task, error)
	FindByPriority(ctx context.Context, priority TaskPriority) ([]*Task, error)
	FindAll(ctx context.Context) ([]*Task, error)
	List(ctx context.Context, filters Filters) ([]*Task, error)
	Update(ctx context.Context, task *Task) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status TaskStatus) (int, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates the Postgres-backed task repository.
func NewRepository(db *sql.DB, logger *slog.Logger) Repository {
	return &repo{
		db:     db,
		logger: logger.With("system", "tasks"),
	}
}

// Create stores the task in one transaction and echoes it back unchanged.
func (r *repo) Create(ctx context.Context, task *Task) (*Task, error) {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.Exec(ctx, tx, `
			INSERT INTO tasks (id, agent_id, name, description, task_type, status, priority,
			                   input_data, output_data, error_message, created_at, started_at, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			task.ID, task.AgentID, task.Name, task.Description, task.Type, task.Status,
			task.Priority, []byte(task.InputData), nullableJSON(task.OutputData),
			task.ErrorMessage, task.CreatedAt, task.StartedAt, task.CompletedAt,
		)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("task created", "id", task.ID, "agent_id", task.AgentID, "priority", task.Priority)
	return task, nil
}

// FindByID returns the task with the given id.
func (r *repo) FindByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildSingle("ID", id)

	task, err := repository.QueryOne(ctx, r.db, q, args, scanTask)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &task, nil
}

// FindByAgent returns the agent's tasks, newest first.
func (r *repo) FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*Task, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("AgentID", agentID).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindByStatus returns tasks with the given status, newest first.
func (r *repo) FindByStatus(ctx context.Context, status TaskStatus) ([]*Task, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("Status", status).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindByPriority returns tasks with the given priority, newest first.
func (r *repo) FindByPriority(ctx context.Context, priority TaskPriority) ([]*Task, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("Priority", priority).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindAll returns every task, newest first.
func (r *repo) FindAll(ctx context.Context) ([]*Task, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildList()
	return r.findMany(ctx, q, args)
}

// List returns tasks matching the filters, newest first. Empty filters
// return every task.
func (r *repo) List(ctx context.Context, filters Filters) ([]*Task, error) {
	q, args := filters.
		Apply(query.NewBuilder(projection, defaultSort)).
		BuildList()
	return r.findMany(ctx, q, args)
}

// Update replaces the stored row with the supplied task in one transaction.
func (r *repo) Update(ctx context.Context, task *Task) (*Task, error) {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, `
			UPDATE tasks
			SET agent_id = $2, name = $3, description = $4, task_type = $5, status = $6,
			    priority = $7, input_data = $8, output_data = $9, error_message = $10,
			    started_at = $11, completed_at = $12
			WHERE id = $1`,
			task.ID, task.AgentID, task.Name, task.Description, task.Type, task.Status,
			task.Priority, []byte(task.InputData), nullableJSON(task.OutputData),
			task.ErrorMessage, task.StartedAt, task.CompletedAt,
		)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("task updated", "id", task.ID, "status", task.Status)
	return task, nil
}

// Delete removes the task. Deleting a nonexistent id is a no-op success.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.Exec(ctx, tx, `DELETE FROM tasks WHERE id = $1`, id)
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("task deleted", "id", id)
	return nil
}

// Count returns the total number of tasks.
func (r *repo) Count(ctx context.Context) (int, error) {
	return repository.Count(ctx, r.db, `SELECT COUNT(*) FROM tasks`)
}

// CountByStatus returns the number of tasks with the given status.
func (r *repo) CountByStatus(ctx context.Context, status TaskStatus) (int, error) {
	return repository.Count(ctx, r.db, `SELECT COUNT(*) FROM tasks WHERE status = $1`, status)
}

func (r *repo) findMany(ctx context.Context, q string, args []any) ([]*Task, error) {
	results, err := repository.QueryMany(ctx, r.db, q, args, scanTask)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	tasks := make([]*Task, len(results))
	for i := range results {
		tasks[i] = &results[i]
	}
	return tasks, nil
}

// nullableJSON converts an absent payload to a SQL NULL instead of an empty
// byte slice.
func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}
