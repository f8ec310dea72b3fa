package learning

import (
	"encoding/json"

	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "learning_sessions", "ls").
	Project("id", "ID").
	Project("agent_id", "AgentID").
	Project("session_type", "Type").
	Project("status", "Status").
	Project("accuracy", "Accuracy").
	Project("loss", "Loss").
	Project("precision_score", "Precision").
	Project("recall", "Recall").
	Project("f1_score", "F1Score").
	Project("custom_metrics", "CustomMetrics").
	Project("created_at", "CreatedAt").
	Project("completed_at", "CompletedAt")

// Finders return newest first.
var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// scanRoot scans a learning_sessions root row. The training data sequence
// and snapshot are loaded and attached by the repository's assembly logic.
func scanRoot(s repository.Scanner) (Session, error) {
	var (
		session Session
		custom  []byte
	)
	err := s.Scan(
		&session.ID,
		&session.AgentID,
		&session.Type,
		&session.Status,
		&session.Metrics.Accuracy,
		&session.Metrics.Loss,
		&session.Metrics.Precision,
		&session.Metrics.Recall,
		&session.Metrics.F1Score,
		&custom,
		&session.CreatedAt,
		&session.CompletedAt,
	)
	if err != nil {
		return session, err
	}
	if len(custom) > 0 {
		if err := json.Unmarshal(custom, &session.Metrics.Custom); err != nil {
			return session, err
		}
	}
	return session, nil
}

// scanTrainingData scans one learning_training_data row. Rows are ordered by
// ordinal so the in-memory sequence matches insertion order.
func scanTrainingData(s repository.Scanner) (TrainingData, error) {
	var (
		td       TrainingData
		input    []byte
		expected []byte
	)
	if err := s.Scan(&input, &expected, &td.Weight); err != nil {
		return td, err
	}
	td.Input = input
	if len(expected) > 0 {
		td.ExpectedOutput = expected
	}
	return td, nil
}

func scanSnapshot(s repository.Scanner) (ModelSnapshot, error) {
	var snap ModelSnapshot
	err := s.Scan(&snap.Data, &snap.Version, &snap.Checksum)
	return snap, err
}
