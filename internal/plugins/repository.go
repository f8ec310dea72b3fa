package plugins

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
)

// Repository is the plugin registry persistence contract.
type Repository interface {
	Create(ctx context.Context, plugin *Plugin) (*Plugin, error)
	FindByID(ctx context.Context, id string) (*Plugin, error)
	FindAll(ctx context.Context) ([]*Plugin, error)
	FindEnabled(ctx context.Context) ([]*Plugin, error)
	Update(ctx context.Context, plugin *Plugin) (*Plugin, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

var projection = query.
	NewProjectionMap("public", "plugins", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("version", "Version").
	Project("description", "Description").
	Project("enabled", "Enabled").
	Project("dependencies", "Dependencies").
	Project("installed_at", "InstalledAt")

var defaultSort = query.SortField{Field: "InstalledAt", Descending: true}

func scanPlugin(s repository.Scanner) (Plugin, error) {
	var (
		p    Plugin
		deps []byte
	)
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Version,
		&p.Description,
		&p.Enabled,
		&deps,
		&p.InstalledAt,
	)
	if err != nil {
		return p, err
	}
	if len(deps) > 0 {
		if err := json.Unmarshal(deps, &p.Dependencies); err != nil {
			return p, err
		}
	}
	return p, nil
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates the Postgres-backed plugin registry.
func NewRepository(db *sql.DB, logger *slog.Logger) Repository {
	return &repo{
		db:     db,
		logger: logger.With("system", "plugins"),
	}
}

// Create stores the plugin and echoes it back unchanged.
func (r *repo) Create(ctx context.Context, plugin *Plugin) (*Plugin, error) {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.Exec(ctx, tx, `
			INSERT INTO plugins (id, name, version, description, enabled, dependencies, installed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			plugin.ID, plugin.Name, plugin.Version, plugin.Description,
			plugin.Enabled, depsJSON(plugin.Dependencies), plugin.InstalledAt,
		)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateID)
	}

	r.logger.Info("plugin registered", "id", plugin.ID, "version", plugin.Version)
	return plugin, nil
}

// FindByID returns the plugin with the given slug.
func (r *repo) FindByID(ctx context.Context, id string) (*Plugin, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildSingle("ID", id)

	plugin, err := repository.QueryOne(ctx, r.db, q, args, scanPlugin)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateID)
	}
	return &plugin, nil
}

// FindAll returns every registered plugin, newest install first.
func (r *repo) FindAll(ctx context.Context) ([]*Plugin, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildList()
	return r.findMany(ctx, q, args)
}

// FindEnabled returns the enabled plugins, newest install first.
func (r *repo) FindEnabled(ctx context.Context) ([]*Plugin, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("Enabled", true).
		BuildList()
	return r.findMany(ctx, q, args)
}

// Update replaces the stored row with the supplied plugin.
func (r *repo) Update(ctx context.Context, plugin *Plugin) (*Plugin, error) {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, `
			UPDATE plugins
			SET name = $2, version = $3, description = $4, enabled = $5, dependencies = $6
			WHERE id = $1`,
			plugin.ID, plugin.Name, plugin.Version, plugin.Description,
			plugin.Enabled, depsJSON(plugin.Dependencies),
		)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateID)
	}

	r.logger.Info("plugin updated", "id", plugin.ID, "enabled", plugin.Enabled)
	return plugin, nil
}

// Delete removes the plugin. Deleting a nonexistent id is a no-op success.
func (r *repo) Delete(ctx context.Context, id string) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.Exec(ctx, tx, `DELETE FROM plugins WHERE id = $1`, id)
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicateID)
	}

	r.logger.Info("plugin unregistered", "id", id)
	return nil
}

// Count returns the total number of registered plugins.
func (r *repo) Count(ctx context.Context) (int, error) {
	return repository.Count(ctx, r.db, `SELECT COUNT(*) FROM plugins`)
}

func (r *repo) findMany(ctx context.Context, q string, args []any) ([]*Plugin, error) {
	results, err := repository.QueryMany(ctx, r.db, q, args, scanPlugin)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateID)
	}

	plugins := make([]*Plugin, len(results))
	for i := range results {
		plugins[i] = &results[i]
	}
	return plugins, nil
}

func depsJSON(deps []string) []byte {
	if deps == nil {
		deps = []string{}
	}
	data, err := json.Marshal(deps)
	if err != nil {
		panic(fmt.Sprintf("marshal dependencies: %v", err))
	}
	return data
}
