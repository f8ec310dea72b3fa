package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentplane/agentplane/internal/agents"
	"github.com/agentplane/agentplane/internal/config"
	"github.com/agentplane/agentplane/internal/learning"
	"github.com/agentplane/agentplane/internal/messages"
	"github.com/agentplane/agentplane/internal/plugins"
	approutes "github.com/agentplane/agentplane/internal/routes"
	"github.com/agentplane/agentplane/internal/security"
	"github.com/agentplane/agentplane/internal/settings"
	"github.com/agentplane/agentplane/internal/tasks"
	"github.com/agentplane/agentplane/migrations"
	"github.com/agentplane/agentplane/pkg/logging"
	pkgroutes "github.com/agentplane/agentplane/pkg/routes"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	if err := cfg.Finalize(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger := logging.New(&cfg.Logging)

	db, err := openDB(cfg.Database)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrateUp(db); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      buildRoutes(cfg, db, logger),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:  cfg.Server.IdleTimeoutDuration(),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	logger.Info("starting server", "addr", srv.Addr)

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	if err := <-shutdownError; err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnTimeoutDuration())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func buildRoutes(cfg *config.Config, db *sql.DB, logger *slog.Logger) http.Handler {
	sec := security.NewStatic(nil)

	agentRepo := agents.NewRepository(db, logger, cfg.Pagination)
	agentSys := agents.NewSystem(agentRepo, agents.NewService(), sec, logger)

	taskRepo := tasks.NewRepository(db, logger)
	taskSys := tasks.NewSystem(taskRepo, agentRepo, tasks.NewService(), tasks.NewStaticOrchestration(), sec, logger)

	learningRepo := learning.NewRepository(db, logger)
	learningService := learning.NewService(learning.Limits{
		MaxSnapshotBytes:   cfg.Learning.MaxSnapshotSizeBytes(),
		MaxTrainingRecords: cfg.Learning.MaxTrainingRecords,
	})
	learningSys := learning.NewSystem(learningRepo, agentRepo, learningService, sec, logger)

	messageRepo := messages.NewRepository(db, logger)
	messageSys := messages.NewSystem(messageRepo, agentRepo, messages.NewService(), logger)

	pluginRepo := plugins.NewRepository(db, logger)
	pluginSys := plugins.NewSystem(pluginRepo, logger)

	settingsRepo := settings.NewRepository(db, logger)

	router := approutes.New(logger)
	router.RegisterRoute(healthRoute())
	router.RegisterGroup(agents.NewHandler(agentSys, logger, cfg.Pagination).Routes())
	router.RegisterGroup(tasks.NewHandler(taskSys, logger).Routes())
	router.RegisterGroup(learning.NewHandler(learningSys, logger).Routes())
	router.RegisterGroup(messages.NewHandler(messageSys, logger).Routes())
	router.RegisterGroup(plugins.NewHandler(pluginSys, logger).Routes())
	router.RegisterGroup(settings.NewHandler(settingsRepo, logger).Routes())

	return router.Build()
}

func healthRoute() pkgroutes.Route {
	return pkgroutes.Route{
		Method:  "GET",
		Pattern: "/healthz",
		Handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		},
	}
}
