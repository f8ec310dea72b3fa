package agents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentplane/agentplane/pkg/pagination"
	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
	"github.com/google/uuid"
)

// Repository is the agent persistence contract. Implementations must keep
// the root row and its dependent collections (capabilities, configuration,
// metadata) consistent: every write is all-or-nothing, and every read
// returns fully assembled aggregates.
type Repository interface {
	Create(ctx context.Context, agent *Agent) (*Agent, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	FindByName(ctx context.Context, name string) (*Agent, error)
	FindByType(ctx context.Context, agentType AgentType) ([]*Agent, error)
	FindByStatus(ctx context.Context, status AgentStatus) ([]*Agent, error)
	FindAll(ctx context.Context) ([]*Agent, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error)
	Update(ctx context.Context, agent *Agent) (*Agent, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status AgentStatus) (int, error)
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// NewRepository creates the Postgres-backed agent repository.
func NewRepository(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Repository {
	return &repo{
		db:         db,
		logger:     logger.With("system", "agents"),
		pagination: pagination,
	}
}

// Create stores the aggregate in one transaction: the root row, one row per
// capability, exactly one configuration row, and one row per metadata entry.
// The stored aggregate is echoed back unchanged.
func (r *repo) Create(ctx context.Context, agent *Agent) (*Agent, error) {
	stored, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Agent, error) {
		if err := repository.Exec(ctx, tx, `
			INSERT INTO agents (id, name, description, agent_type, status, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			agent.ID, agent.Name, agent.Description, agent.Type, agent.Status,
			agent.Version, agent.CreatedAt, agent.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if err := insertCapabilities(ctx, tx, agent.ID, agent.Capabilities); err != nil {
			return nil, err
		}

		if err := insertConfiguration(ctx, tx, agent.ID, agent.Configuration); err != nil {
			return nil, err
		}

		if err := insertMetadata(ctx, tx, agent.ID, agent.Metadata); err != nil {
			return nil, err
		}

		return agent, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateName)
	}

	r.logger.Info("agent created", "id", stored.ID, "name", stored.Name)
	return stored, nil
}

// FindByID assembles the root row plus the full capability set,
// configuration, and metadata into one consistent snapshot. A missing
// configuration row for an existing root is a corruption fault.
func (r *repo) FindByID(ctx context.Context, id uuid.UUID) (*Agent, error) {
	return r.findOne(ctx, "ID", id)
}

// FindByName assembles the aggregate whose root row matches the unique name.
func (r *repo) FindByName(ctx context.Context, name string) (*Agent, error) {
	return r.findOne(ctx, "Name", name)
}

// FindByType returns full aggregates of the given type, newest first.
func (r *repo) FindByType(ctx context.Context, agentType AgentType) ([]*Agent, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("Type", agentType).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindByStatus returns full aggregates with the given status, newest first.
func (r *repo) FindByStatus(ctx context.Context, status AgentStatus) ([]*Agent, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("Status", status).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindAll returns every aggregate ordered by creation time, newest first.
func (r *repo) FindAll(ctx context.Context) ([]*Agent, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildList()
	return r.findMany(ctx, q, args)
}

// List returns a page of fully assembled aggregates.
func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)

	type listPage struct {
		agents []*Agent
		total  int
	}

	lp, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (listPage, error) {
		var lp listPage
		if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&lp.total); err != nil {
			return lp, fmt.Errorf("count agents: %w", err)
		}

		roots, err := repository.QueryMany(ctx, tx, pageSQL, pageArgs, scanRoot)
		if err != nil {
			return lp, fmt.Errorf("query agents: %w", err)
		}

		lp.agents, err = r.assembleAll(ctx, tx, roots)
		return lp, err
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateName)
	}

	data := make([]Agent, len(lp.agents))
	for i, a := range lp.agents {
		data[i] = *a
	}

	result := pagination.NewPageResult(data, lp.total, page.Page, page.PageSize)
	return &result, nil
}

// Update reconciles the stored aggregate to exactly match the supplied one
// in a single transaction: the root row is updated under an optimistic
// version check, the configuration row is rewritten, and the capability and
// metadata collections are replaced wholesale so removals and additions land
// atomically with the root changes.
func (r *repo) Update(ctx context.Context, agent *Agent) (*Agent, error) {
	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Agent, error) {
		row := tx.QueryRowContext(ctx, `
			UPDATE agents
			SET name = $2, description = $3, agent_type = $4, status = $5,
			    version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $6
			RETURNING version, updated_at`,
			agent.ID, agent.Name, agent.Description, agent.Type, agent.Status, agent.Version,
		)

		next := *agent
		if err := row.Scan(&next.Version, &next.UpdatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, r.classifyMissedUpdate(ctx, tx, agent.ID)
			}
			return nil, err
		}

		if err := repository.ExecExpectOne(ctx, tx, `
			UPDATE agent_configurations
			SET model_config = $2, execution_config = $3, security_config = $4
			WHERE agent_id = $1`,
			agent.ID,
			mustJSON(agent.Configuration.Model),
			mustJSON(agent.Configuration.Execution),
			mustJSON(agent.Configuration.Security),
		); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: id %s", ErrCorrupted, agent.ID)
			}
			return nil, err
		}

		if err := repository.Exec(ctx, tx, `DELETE FROM agent_capabilities WHERE agent_id = $1`, agent.ID); err != nil {
			return nil, err
		}
		if err := insertCapabilities(ctx, tx, agent.ID, agent.Capabilities); err != nil {
			return nil, err
		}

		if err := repository.Exec(ctx, tx, `DELETE FROM agent_metadata WHERE agent_id = $1`, agent.ID); err != nil {
			return nil, err
		}
		if err := insertMetadata(ctx, tx, agent.ID, agent.Metadata); err != nil {
			return nil, err
		}

		return &next, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateName)
	}

	r.logger.Info("agent updated", "id", updated.ID, "name", updated.Name, "version", updated.Version)
	return updated, nil
}

// Delete removes dependent rows before the root row in one transaction.
// Deleting a nonexistent id is a no-op success; existence is the calling
// use-case's concern.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, stmt := range []string{
			`DELETE FROM agent_metadata WHERE agent_id = $1`,
			`DELETE FROM agent_capabilities WHERE agent_id = $1`,
			`DELETE FROM agent_configurations WHERE agent_id = $1`,
			`DELETE FROM agents WHERE id = $1`,
		} {
			if err := repository.Exec(ctx, tx, stmt, id); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicateName)
	}

	r.logger.Info("agent deleted", "id", id)
	return nil
}

// Count returns the root-row cardinality.
func (r *repo) Count(ctx context.Context) (int, error) {
	return repository.Count(ctx, r.db, `SELECT COUNT(*) FROM agents`)
}

// CountByStatus returns the number of agents with the given status.
func (r *repo) CountByStatus(ctx context.Context, status AgentStatus) (int, error) {
	return repository.Count(ctx, r.db, `SELECT COUNT(*) FROM agents WHERE status = $1`, status)
}

func (r *repo) findOne(ctx context.Context, field string, value any) (*Agent, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildSingle(field, value)

	agent, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Agent, error) {
		root, err := repository.QueryOne(ctx, tx, q, args, scanRoot)
		if err != nil {
			return nil, err
		}
		return r.assemble(ctx, tx, root)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateName)
	}
	return agent, nil
}

func (r *repo) findMany(ctx context.Context, q string, args []any) ([]*Agent, error) {
	agents, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]*Agent, error) {
		roots, err := repository.QueryMany(ctx, tx, q, args, scanRoot)
		if err != nil {
			return nil, err
		}
		return r.assembleAll(ctx, tx, roots)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateName)
	}
	return agents, nil
}

// assemble attaches the dependent collections to a root row. All finder
// methods delegate here so every read path returns the same aggregate shape.
func (r *repo) assemble(ctx context.Context, tx *sql.Tx, root Agent) (*Agent, error) {
	capabilities, err := repository.QueryMany(ctx, tx, `
		SELECT name, description, version, parameters
		FROM agent_capabilities
		WHERE agent_id = $1
		ORDER BY name`,
		[]any{root.ID}, scanCapability,
	)
	if err != nil {
		return nil, fmt.Errorf("load capabilities: %w", err)
	}

	cfg, err := repository.QueryOne(ctx, tx, `
		SELECT model_config, execution_config, security_config
		FROM agent_configurations
		WHERE agent_id = $1`,
		[]any{root.ID}, scanConfiguration,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %s", ErrCorrupted, root.ID)
		}
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	rows, err := repository.QueryMany(ctx, tx, `
		SELECT key, value
		FROM agent_metadata
		WHERE agent_id = $1`,
		[]any{root.ID}, scanMetadata,
	)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	metadata := make(map[string]string, len(rows))
	for _, row := range rows {
		metadata[row.Key] = row.Value
	}

	root.Capabilities = capabilities
	root.Configuration = cfg
	root.Metadata = metadata
	return &root, nil
}

func (r *repo) assembleAll(ctx context.Context, tx *sql.Tx, roots []Agent) ([]*Agent, error) {
	agents := make([]*Agent, 0, len(roots))
	for _, root := range roots {
		agent, err := r.assemble(ctx, tx, root)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

// classifyMissedUpdate distinguishes a stale-version conflict from a missing
// row after a guarded UPDATE affected nothing.
func (r *repo) classifyMissedUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var current int64
	err := tx.QueryRowContext(ctx, `SELECT version FROM agents WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: stored version %d", ErrStaleVersion, current)
}

func insertCapabilities(ctx context.Context, tx *sql.Tx, agentID uuid.UUID, capabilities []Capability) error {
	for _, c := range capabilities {
		if err := repository.Exec(ctx, tx, `
			INSERT INTO agent_capabilities (agent_id, name, description, version, parameters)
			VALUES ($1, $2, $3, $4, $5)`,
			agentID, c.Name, c.Description, c.Version, mustJSON(c.Parameters),
		); err != nil {
			return err
		}
	}
	return nil
}

func insertConfiguration(ctx context.Context, tx *sql.Tx, agentID uuid.UUID, cfg Configuration) error {
	return repository.Exec(ctx, tx, `
		INSERT INTO agent_configurations (agent_id, model_config, execution_config, security_config)
		VALUES ($1, $2, $3, $4)`,
		agentID, mustJSON(cfg.Model), mustJSON(cfg.Execution), mustJSON(cfg.Security),
	)
}

func insertMetadata(ctx context.Context, tx *sql.Tx, agentID uuid.UUID, metadata map[string]string) error {
	for key, value := range metadata {
		if err := repository.Exec(ctx, tx, `
			INSERT INTO agent_metadata (agent_id, key, value)
			VALUES ($1, $2, $3)`,
			agentID, key, value,
		); err != nil {
			return err
		}
	}
	return nil
}

// mustJSON marshals values whose types cannot fail encoding (maps and
// structs of scalars).
func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return data
}
