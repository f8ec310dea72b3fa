package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/agentplane/agentplane/internal/agents"
	"github.com/agentplane/agentplane/internal/tasks"
	"github.com/agentplane/agentplane/pkg/pagination"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const EnvDatabaseDSN = "DATABASE_DSN"

func main() {
	var (
		dsn   = flag.String("dsn", "", "Database connection string")
		all   = flag.Bool("all", false, "Run all seeders")
		seedA = flag.Bool("agents", false, "Seed sample agents")
		seedT = flag.Bool("tasks", false, "Seed sample tasks for seeded agents")
	)
	flag.Parse()

	if *dsn == "" {
		*dsn = os.Getenv(EnvDatabaseDSN)
	}
	if *dsn == "" {
		log.Fatalf("database connection string required: use -dsn flag or %s env var", EnvDatabaseDSN)
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	switch {
	case *all, *seedA && *seedT:
		if err := seedAgents(ctx, db, logger); err != nil {
			log.Fatalf("seeding agents failed: %v", err)
		}
		if err := seedTasks(ctx, db, logger); err != nil {
			log.Fatalf("seeding tasks failed: %v", err)
		}
		fmt.Println("all seeders completed successfully")

	case *seedA:
		if err := seedAgents(ctx, db, logger); err != nil {
			log.Fatalf("seeding agents failed: %v", err)
		}
		fmt.Println("agents seeded successfully")

	case *seedT:
		if err := seedTasks(ctx, db, logger); err != nil {
			log.Fatalf("seeding tasks failed: %v", err)
		}
		fmt.Println("tasks seeded successfully")

	default:
		fmt.Println("usage: seed -dsn <connection-string> [-all|-agents|-tasks]")
		flag.PrintDefaults()
	}
}

func seedAgents(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	var cfg pagination.Config
	if err := cfg.Finalize(); err != nil {
		return err
	}

	repo := agents.NewRepository(db, logger, cfg)
	service := agents.NewService()

	for _, req := range sampleAgents() {
		agent, err := service.CreateAgent(ctx, req)
		if err != nil {
			return fmt.Errorf("materialize %s: %w", req.Name, err)
		}
		if _, err := repo.Create(ctx, agent); err != nil {
			return fmt.Errorf("store %s: %w", req.Name, err)
		}
	}
	return nil
}

func seedTasks(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	var cfg pagination.Config
	if err := cfg.Finalize(); err != nil {
		return err
	}

	agentRepo := agents.NewRepository(db, logger, cfg)
	taskRepo := tasks.NewRepository(db, logger)
	service := tasks.NewService()

	seeded, err := agentRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(seeded) == 0 {
		return fmt.Errorf("no agents to attach tasks to; run -agents first")
	}

	for i, agent := range seeded {
		task, err := service.CreateTask(ctx, tasks.CreateTaskRequest{
			AgentID:     agent.ID,
			Name:        fmt.Sprintf("warmup-%d", i+1),
			Description: "initial workload for " + agent.Name,
			Type:        tasks.TypeTextGeneration,
			Priority:    tasks.PriorityNormal,
			InputData:   json.RawMessage(`{"prompt": "hello"}`),
		})
		if err != nil {
			return err
		}
		if _, err := taskRepo.Create(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func sampleAgents() []agents.CreateAgentRequest {
	return []agents.CreateAgentRequest{
		{
			Name:        "concierge",
			Description: "General purpose conversational agent",
			Type:        agents.TypeConversational,
			Capabilities: []agents.Capability{
				{Name: "chat", Description: "Multi-turn conversation", Version: "1.0.0"},
			},
			Configuration: defaultConfiguration("gpt-baseline", 8192),
			Metadata:      map[string]string{"team": "platform"},
		},
		{
			Name:        "analyst",
			Description: "Structured data analysis agent",
			Type:        agents.TypeTaskExecutor,
			Capabilities: []agents.Capability{
				{Name: "analyze", Description: "Tabular analysis", Version: "1.2.0"},
				{Name: "report", Description: "Summary generation", Version: "0.9.0"},
			},
			Configuration: defaultConfiguration("analyst-base", 4096),
			Metadata:      map[string]string{"team": "insights"},
		},
		{
			Name:          "watchdog",
			Description:   "System monitoring agent",
			Type:          agents.TypeMonitoring,
			Configuration: defaultConfiguration("monitor-lite", 2048),
		},
	}
}

func defaultConfiguration(model string, contextWindow int) agents.Configuration {
	return agents.Configuration{
		Model: agents.ModelConfiguration{
			Name:          model,
			Version:       "1.0",
			ContextWindow: contextWindow,
			Parameters:    map[string]float64{"temperature": 0.7},
		},
		Execution: agents.ExecutionConfiguration{
			MaxConcurrentTasks: 4,
			TimeoutSeconds:     60,
			RetryAttempts:      2,
			MemoryLimitMB:      512,
		},
		Security: agents.SecurityConfiguration{
			APIKeyRequired:    true,
			EncryptionEnabled: true,
		},
	}
}
