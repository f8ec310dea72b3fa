package learning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service is the learning management domain contract. It materializes new
// sessions and computes the next value of a session for each lifecycle
// event; transition legality is enforced by the orchestrator before these
// are called. Metric calculation is a placeholder rule set pending a real
// evaluation backend.
type Service interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	BeginTraining(ctx context.Context, session *Session) (*Session, error)
	BeginEvaluation(ctx context.Context, session *Session) (*Session, error)
	CompleteSession(ctx context.Context, session *Session, metrics Metrics) (*Session, error)
	FailSession(ctx context.Context, session *Session) (*Session, error)
	RecordMetrics(ctx context.Context, session *Session, metrics Metrics) (*Session, error)
	AttachSnapshot(ctx context.Context, session *Session, snapshot ModelSnapshot) (*Session, error)
	CalculateMetrics(ctx context.Context, session *Session) (Metrics, error)
	EvaluateModelPerformance(ctx context.Context, session *Session) (float64, error)
}

// Limits bounds the payloads a session may carry, sourced from the learning
// configuration section.
type Limits struct {
	MaxSnapshotBytes   int64
	MaxTrainingRecords int
}

type service struct {
	limits Limits
	now    func() time.Time
}

// NewService creates the default learning management service.
func NewService(limits Limits) Service {
	return &service{
		limits: limits,
		now:    time.Now,
	}
}

// CreateSession materializes a new preparing session.
func (s *service) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	if req.AgentID == uuid.Nil {
		return nil, fmt.Errorf("%w: agent id required", ErrInvalidRequest)
	}
	if err := req.Type.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if s.limits.MaxTrainingRecords > 0 && len(req.TrainingData) > s.limits.MaxTrainingRecords {
		return nil, fmt.Errorf("%w: %d records, limit %d", ErrTooManyRecords, len(req.TrainingData), s.limits.MaxTrainingRecords)
	}

	data := make([]TrainingData, len(req.TrainingData))
	for i, td := range req.TrainingData {
		if len(td.Input) == 0 {
			return nil, fmt.Errorf("%w: training record %d has no input", ErrInvalidRequest, i)
		}
		if td.Weight == 0 {
			td.Weight = 1.0
		}
		data[i] = td
	}

	return &Session{
		ID:           uuid.New(),
		AgentID:      req.AgentID,
		Type:         req.Type,
		Status:       StatusPreparing,
		TrainingData: data,
		CreatedAt:    s.now().UTC(),
	}, nil
}

// BeginTraining computes the training session.
func (s *service) BeginTraining(ctx context.Context, session *Session) (*Session, error) {
	next := *session
	next.Status = StatusTraining
	return &next, nil
}

// BeginEvaluation computes the evaluating session.
func (s *service) BeginEvaluation(ctx context.Context, session *Session) (*Session, error) {
	next := *session
	next.Status = StatusEvaluating
	return &next, nil
}

// CompleteSession computes the completed session carrying its final metrics.
func (s *service) CompleteSession(ctx context.Context, session *Session, metrics Metrics) (*Session, error) {
	next := *session
	next.Status = StatusCompleted
	next.Metrics = metrics
	completed := s.now().UTC()
	next.CompletedAt = &completed
	return &next, nil
}

// FailSession computes the failed session.
func (s *service) FailSession(ctx context.Context, session *Session) (*Session, error) {
	next := *session
	next.Status = StatusFailed
	completed := s.now().UTC()
	next.CompletedAt = &completed
	return &next, nil
}

// RecordMetrics computes the session with updated progress metrics without
// touching its lifecycle.
func (s *service) RecordMetrics(ctx context.Context, session *Session, metrics Metrics) (*Session, error) {
	next := *session
	next.Metrics = metrics
	return &next, nil
}

// AttachSnapshot computes the session carrying the model snapshot. The
// snapshot is rejected above the configured size limit; a missing checksum
// is filled in from the data.
func (s *service) AttachSnapshot(ctx context.Context, session *Session, snapshot ModelSnapshot) (*Session, error) {
	if len(snapshot.Data) == 0 {
		return nil, fmt.Errorf("%w: snapshot data required", ErrInvalidRequest)
	}
	if s.limits.MaxSnapshotBytes > 0 && int64(len(snapshot.Data)) > s.limits.MaxSnapshotBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrSnapshotTooLarge, len(snapshot.Data), s.limits.MaxSnapshotBytes)
	}

	if snapshot.Checksum == "" {
		sum := sha256.Sum256(snapshot.Data)
		snapshot.Checksum = hex.EncodeToString(sum[:])
	}

	next := *session
	next.Snapshot = &snapshot
	return &next, nil
}

// CalculateMetrics returns placeholder evaluation results. A real training
// backend replaces this rule when one exists.
func (s *service) CalculateMetrics(ctx context.Context, session *Session) (Metrics, error) {
	if len(session.TrainingData) == 0 {
		return Metrics{}, fmt.Errorf("%w: no training data to evaluate", ErrInvalidRequest)
	}

	accuracy := 0.95
	loss := 0.05
	precision := 0.93
	recall := 0.94
	f1 := 0.935

	return Metrics{
		Accuracy:  &accuracy,
		Loss:      &loss,
		Precision: &precision,
		Recall:    &recall,
		F1Score:   &f1,
		Custom: map[string]float64{
			"training_records": float64(len(session.TrainingData)),
		},
	}, nil
}

// EvaluateModelPerformance reduces the session's recorded metrics to a
// single score: the mean of the standard metrics that are present.
func (s *service) EvaluateModelPerformance(ctx context.Context, session *Session) (float64, error) {
	values := []*float64{
		session.Metrics.Accuracy,
		session.Metrics.Precision,
		session.Metrics.Recall,
		session.Metrics.F1Score,
	}

	var (
		sum   float64
		count int
	)
	for _, v := range values {
		if v != nil {
			sum += *v
			count++
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("%w: no metrics recorded", ErrInvalidRequest)
	}
	return sum / float64(count), nil
}
