// Package learning provides the learning-session aggregate: the session
// model with its lifecycle state machine, the multi-table repository, the
// learning management domain service, and the use-case orchestrator.
package learning

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionType categorizes the learning approach for a session.
type SessionType string

// Learning session types.
const (
	TypeSupervised    SessionType = "supervised"
	TypeUnsupervised  SessionType = "unsupervised"
	TypeReinforcement SessionType = "reinforcement"
	TypeTransfer      SessionType = "transfer"
	TypeFineTuning    SessionType = "fine_tuning"
)

// Validate checks if the type is a valid session type.
func (t SessionType) Validate() error {
	switch t {
	case TypeSupervised, TypeUnsupervised, TypeReinforcement, TypeTransfer, TypeFineTuning:
		return nil
	default:
		return fmt.Errorf("invalid session type: %s", t)
	}
}

// SessionStatus represents a session's lifecycle state.
type SessionStatus string

// Session status values.
const (
	StatusPreparing  SessionStatus = "preparing"
	StatusTraining   SessionStatus = "training"
	StatusEvaluating SessionStatus = "evaluating"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Statuses returns every session status, in statistics reporting order.
func Statuses() []SessionStatus {
	return []SessionStatus{StatusPreparing, StatusTraining, StatusEvaluating, StatusCompleted, StatusFailed}
}

// Validate checks if the status is a valid session status.
func (s SessionStatus) Validate() error {
	switch s {
	case StatusPreparing, StatusTraining, StatusEvaluating, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid session status: %s", s)
	}
}

// Terminal reports whether the status admits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the session lifecycle permits moving from
// one status to another: preparing advances to training, training to
// evaluating, evaluating to completed; failure is reachable from any
// non-terminal state; terminal states absorb.
func CanTransition(from, to SessionStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}

	switch from {
	case StatusPreparing:
		return to == StatusTraining
	case StatusTraining:
		return to == StatusEvaluating
	case StatusEvaluating:
		return to == StatusCompleted
	default:
		return false
	}
}

// TrainingData is one record in a session's ordered training sequence.
type TrainingData struct {
	Input          json.RawMessage `json:"input"`
	ExpectedOutput json.RawMessage `json:"expected_output,omitempty"`
	Weight         float64         `json:"weight"`
}

// ModelSnapshot carries the serialized model produced by a session.
type ModelSnapshot struct {
	Data     []byte `json:"data"`
	Version  string `json:"version"`
	Checksum string `json:"checksum"`
}

// Metrics holds the evaluation results for a session. Standard metrics are
// pointers so "not yet measured" is distinguishable from zero.
type Metrics struct {
	Accuracy  *float64           `json:"accuracy,omitempty"`
	Loss      *float64           `json:"loss,omitempty"`
	Precision *float64           `json:"precision,omitempty"`
	Recall    *float64           `json:"recall,omitempty"`
	F1Score   *float64           `json:"f1_score,omitempty"`
	Custom    map[string]float64 `json:"custom,omitempty"`
}

// Session is an aggregate root owned by an agent: the root record, the
// ordered training data sequence, and an optional model snapshot. Metrics
// live on the root. CompletedAt is set only in a terminal state.
type Session struct {
	ID           uuid.UUID      `json:"id"`
	AgentID      uuid.UUID      `json:"agent_id"`
	Type         SessionType    `json:"type"`
	Status       SessionStatus  `json:"status"`
	TrainingData []TrainingData `json:"training_data"`
	Snapshot     *ModelSnapshot `json:"snapshot,omitempty"`
	Metrics      Metrics        `json:"metrics"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// CreateSessionRequest contains the data required to start a new learning
// session. Identity, initial status, and timestamps are assigned by the
// domain service.
type CreateSessionRequest struct {
	AgentID      uuid.UUID      `json:"agent_id"`
	Type         SessionType    `json:"type"`
	TrainingData []TrainingData `json:"training_data"`
}

// Statistics is the fixed-shape per-status count record for sessions.
type Statistics struct {
	TotalSessions      int `json:"total_sessions"`
	PreparingSessions  int `json:"preparing_sessions"`
	TrainingSessions   int `json:"training_sessions"`
	EvaluatingSessions int `json:"evaluating_sessions"`
	CompletedSessions  int `json:"completed_sessions"`
	FailedSessions     int `json:"failed_sessions"`
}
