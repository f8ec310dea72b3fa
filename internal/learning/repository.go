package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
	"github.com/google/uuid"
)

// Repository is the learning session persistence contract. Implementations
// must keep the root row, the ordered training data sequence, and the
// optional model snapshot consistent: every write is all-or-nothing, and
// every read returns fully assembled aggregates.
type Repository interface {
	Create(ctx context.Context, session *Session) (*Session, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*Session, error)
	FindByType(ctx context.Context, sessionType SessionType) ([]*Session, error)
	FindByStatus(ctx context.Context, status SessionStatus) ([]*Session, error)
	FindAll(ctx context.Context) ([]*Session, error)
	History(ctx context.Context, agentID uuid.UUID, limit int) ([]*Session, error)
	Update(ctx context.Context, session *Session) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status SessionStatus) (int, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates the Postgres-backed learning session repository.
func NewRepository(db *sql.DB, logger *slog.Logger) Repository {
	return &repo{
		db:     db,
		logger: logger.With("system", "learning"),
	}
}

// Create stores the aggregate in one transaction: the root row, one row per
// training record (ordinal preserves sequence order), and the snapshot row
// when present. The stored aggregate is echoed back unchanged.
func (r *repo) Create(ctx context.Context, session *Session) (*Session, error) {
	stored, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Session, error) {
		if err := repository.Exec(ctx, tx, `
			INSERT INTO learning_sessions (id, agent_id, session_type, status,
			                               accuracy, loss, precision_score, recall, f1_score,
			                               custom_metrics, created_at, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			session.ID, session.AgentID, session.Type, session.Status,
			session.Metrics.Accuracy, session.Metrics.Loss, session.Metrics.Precision,
			session.Metrics.Recall, session.Metrics.F1Score, customJSON(session.Metrics.Custom),
			session.CreatedAt, session.CompletedAt,
		); err != nil {
			return nil, err
		}

		if err := insertTrainingData(ctx, tx, session.ID, session.TrainingData); err != nil {
			return nil, err
		}

		if err := insertSnapshot(ctx, tx, session.ID, session.Snapshot); err != nil {
			return nil, err
		}

		return session, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("session created", "id", stored.ID, "agent_id", stored.AgentID, "type", stored.Type)
	return stored, nil
}

// FindByID assembles the root row plus the training data sequence and
// snapshot into one consistent aggregate.
func (r *repo) FindByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildSingle("ID", id)

	session, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Session, error) {
		root, err := repository.QueryOne(ctx, tx, q, args, scanRoot)
		if err != nil {
			return nil, err
		}
		return r.assemble(ctx, tx, root)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return session, nil
}

// FindByAgent returns the agent's sessions, newest first.
func (r *repo) FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*Session, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("AgentID", agentID).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindByType returns sessions of the given type, newest first.
func (r *repo) FindByType(ctx context.Context, sessionType SessionType) ([]*Session, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("Type", sessionType).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindByStatus returns sessions with the given status, newest first.
func (r *repo) FindByStatus(ctx context.Context, status SessionStatus) ([]*Session, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("Status", status).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindAll returns every session, newest first.
func (r *repo) FindAll(ctx context.Context) ([]*Session, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildList()
	return r.findMany(ctx, q, args)
}

// History returns the agent's most recent sessions, newest first, truncated
// to the caller-supplied limit.
func (r *repo) History(ctx context.Context, agentID uuid.UUID, limit int) ([]*Session, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("AgentID", agentID).
		BuildPage(1, limit)
	return r.findMany(ctx, q, args)
}

// Update reconciles the stored aggregate to exactly match the supplied one
// in a single transaction: the root row (status, metrics, completion) is
// rewritten, and the training data and snapshot are replaced wholesale so
// removals land atomically with the root changes.
func (r *repo) Update(ctx context.Context, session *Session) (*Session, error) {
	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Session, error) {
		if err := repository.ExecExpectOne(ctx, tx, `
			UPDATE learning_sessions
			SET session_type = $2, status = $3, accuracy = $4, loss = $5,
			    precision_score = $6, recall = $7, f1_score = $8,
			    custom_metrics = $9, completed_at = $10
			WHERE id = $1`,
			session.ID, session.Type, session.Status,
			session.Metrics.Accuracy, session.Metrics.Loss, session.Metrics.Precision,
			session.Metrics.Recall, session.Metrics.F1Score, customJSON(session.Metrics.Custom),
			session.CompletedAt,
		); err != nil {
			return nil, err
		}

		if err := repository.Exec(ctx, tx, `DELETE FROM learning_training_data WHERE session_id = $1`, session.ID); err != nil {
			return nil, err
		}
		if err := insertTrainingData(ctx, tx, session.ID, session.TrainingData); err != nil {
			return nil, err
		}

		if err := repository.Exec(ctx, tx, `DELETE FROM learning_snapshots WHERE session_id = $1`, session.ID); err != nil {
			return nil, err
		}
		if err := insertSnapshot(ctx, tx, session.ID, session.Snapshot); err != nil {
			return nil, err
		}

		return session, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("session updated", "id", updated.ID, "status", updated.Status)
	return updated, nil
}

// Delete removes dependent rows before the root row in one transaction.
// Deleting a nonexistent id is a no-op success.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, stmt := range []string{
			`DELETE FROM learning_snapshots WHERE session_id = $1`,
			`DELETE FROM learning_training_data WHERE session_id = $1`,
			`DELETE FROM learning_sessions WHERE id = $1`,
		} {
			if err := repository.Exec(ctx, tx, stmt, id); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("session deleted", "id", id)
	return nil
}

// Count returns the root-row cardinality.
func (r *repo) Count(ctx context.Context) (int, error) {
	return repository.Count(ctx, r.db, `SELECT COUNT(*) FROM learning_sessions`)
}

// CountByStatus returns the number of sessions with the given status.
func (r *repo) CountByStatus(ctx context.Context, status SessionStatus) (int, error) {
	return repository.Count(ctx, r.db, `SELECT COUNT(*) FROM learning_sessions WHERE status = $1`, status)
}

func (r *repo) findMany(ctx context.Context, q string, args []any) ([]*Session, error) {
	sessions, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]*Session, error) {
		roots, err := repository.QueryMany(ctx, tx, q, args, scanRoot)
		if err != nil {
			return nil, err
		}

		out := make([]*Session, 0, len(roots))
		for _, root := range roots {
			session, err := r.assemble(ctx, tx, root)
			if err != nil {
				return nil, err
			}
			out = append(out, session)
		}
		return out, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return sessions, nil
}

// assemble attaches the training data sequence and snapshot to a root row.
// All finder methods delegate here so every read path returns the same
// aggregate shape. A missing snapshot row is a valid state, not a fault.
func (r *repo) assemble(ctx context.Context, tx *sql.Tx, root Session) (*Session, error) {
	data, err := repository.QueryMany(ctx, tx, `
		SELECT input, expected_output, weight
		FROM learning_training_data
		WHERE session_id = $1
		ORDER BY ordinal`,
		[]any{root.ID}, scanTrainingData,
	)
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}

	snapshot, err := repository.QueryOne(ctx, tx, `
		SELECT data, version, checksum
		FROM learning_snapshots
		WHERE session_id = $1`,
		[]any{root.ID}, scanSnapshot,
	)
	switch {
	case err == nil:
		root.Snapshot = &snapshot
	case errors.Is(err, sql.ErrNoRows):
		root.Snapshot = nil
	default:
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	root.TrainingData = data
	return &root, nil
}

func insertTrainingData(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID, data []TrainingData) error {
	for i, td := range data {
		var expected any
		if len(td.ExpectedOutput) > 0 {
			expected = []byte(td.ExpectedOutput)
		}
		if err := repository.Exec(ctx, tx, `
			INSERT INTO learning_training_data (session_id, ordinal, input, expected_output, weight)
			VALUES ($1, $2, $3, $4, $5)`,
			sessionID, i, []byte(td.Input), expected, td.Weight,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID, snapshot *ModelSnapshot) error {
	if snapshot == nil {
		return nil
	}
	return repository.Exec(ctx, tx, `
		INSERT INTO learning_snapshots (session_id, data, version, checksum)
		VALUES ($1, $2, $3, $4)`,
		sessionID, snapshot.Data, snapshot.Version, snapshot.Checksum,
	)
}

// customJSON marshals the custom metrics map, storing NULL when empty.
func customJSON(custom map[string]float64) any {
	if len(custom) == 0 {
		return nil
	}
	data, err := json.Marshal(custom)
	if err != nil {
		panic(fmt.Sprintf("marshal custom metrics: %v", err))
	}
	return data
}
