package settings

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/agentplane/agentplane/pkg/repository"
)

// Repository is the global settings persistence contract. Set is an upsert;
// keys have no registration step.
type Repository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	List(ctx context.Context) ([]*Setting, error)
	Set(ctx context.Context, setting *Setting) (*Setting, error)
	Delete(ctx context.Context, key string) error
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates the Postgres-backed settings store.
func NewRepository(db *sql.DB, logger *slog.Logger) Repository {
	return &repo{
		db:     db,
		logger: logger.With("system", "settings"),
	}
}

// Get returns the setting with the given key.
func (r *repo) Get(ctx context.Context, key string) (*Setting, error) {
	setting, err := repository.QueryOne(ctx, r.db, `
		SELECT key, value, updated_at
		FROM global_settings
		WHERE key = $1`,
		[]any{key}, scanSetting,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &setting, nil
}

// List returns every setting, ordered by key.
func (r *repo) List(ctx context.Context) ([]*Setting, error) {
	results, err := repository.QueryMany(ctx, r.db, `
		SELECT key, value, updated_at
		FROM global_settings
		ORDER BY key`,
		nil, scanSetting,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	settings := make([]*Setting, len(results))
	for i := range results {
		settings[i] = &results[i]
	}
	return settings, nil
}

// Set inserts or replaces the setting and echoes the stored value with its
// server-side update timestamp.
func (r *repo) Set(ctx context.Context, setting *Setting) (*Setting, error) {
	stored, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Setting, error) {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO global_settings (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
			RETURNING updated_at`,
			setting.Key, []byte(setting.Value),
		)

		next := *setting
		if err := row.Scan(&next.UpdatedAt); err != nil {
			return nil, err
		}
		return &next, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("setting stored", "key", stored.Key)
	return stored, nil
}

// Delete removes the setting. Deleting a nonexistent key is a no-op success.
func (r *repo) Delete(ctx context.Context, key string) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.Exec(ctx, tx, `DELETE FROM global_settings WHERE key = $1`, key)
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("setting deleted", "key", key)
	return nil
}

func scanSetting(s repository.Scanner) (Setting, error) {
	var (
		setting Setting
		value   []byte
	)
	if err := s.Scan(&setting.Key, &value, &setting.UpdatedAt); err != nil {
		return setting, err
	}
	setting.Value = value
	return setting, nil
}
