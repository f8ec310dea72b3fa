package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/agentplane/agentplane/pkg/repository"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	notFound := errors.New("widget not found")
	conflict := errors.New("widget conflict")

	t.Run("nil passes through", func(t *testing.T) {
		if err := repository.MapError(nil, notFound, conflict); err != nil {
			t.Errorf("MapError(nil) = %v, expected nil", err)
		}
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		err := repository.MapError(sql.ErrNoRows, notFound, conflict)
		if !errors.Is(err, notFound) {
			t.Errorf("MapError(sql.ErrNoRows) = %v, expected not-found sentinel", err)
		}
	})

	t.Run("wrapped no rows maps to not found", func(t *testing.T) {
		err := repository.MapError(fmt.Errorf("lookup: %w", sql.ErrNoRows), notFound, conflict)
		if !errors.Is(err, notFound) {
			t.Errorf("MapError(wrapped ErrNoRows) = %v, expected not-found sentinel", err)
		}
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "agents_name_key"}
		err := repository.MapError(pgErr, notFound, conflict)
		if !errors.Is(err, conflict) {
			t.Errorf("MapError(23505) = %v, expected conflict sentinel", err)
		}
	})

	t.Run("foreign key violation maps to conflict", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "tasks_agent_id_fkey"}
		err := repository.MapError(pgErr, notFound, conflict)
		if !errors.Is(err, conflict) {
			t.Errorf("MapError(23503) = %v, expected conflict sentinel", err)
		}
	})

	t.Run("conflict carries constraint name", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "agents_name_key"}
		err := repository.MapError(pgErr, notFound, conflict)
		if err == nil || err.Error() != "widget conflict: agents_name_key" {
			t.Errorf("MapError(23505) = %v, expected constraint name in message", err)
		}
	})

	t.Run("other pg errors pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "42P01"}
		err := repository.MapError(pgErr, notFound, conflict)
		if !errors.Is(err, pgErr) {
			t.Errorf("MapError(42P01) = %v, expected passthrough", err)
		}
	})

	t.Run("unrelated errors pass through", func(t *testing.T) {
		original := errors.New("connection reset")
		err := repository.MapError(original, notFound, conflict)
		if !errors.Is(err, original) {
			t.Errorf("MapError(unrelated) = %v, expected passthrough", err)
		}
	})
}
