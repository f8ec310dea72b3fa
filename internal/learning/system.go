package learning

import (
	"context"

	"github.com/google/uuid"
)

// System is the learning session use-case contract exposed to the transport
// layer. Lifecycle transitions are gated on existence and legality before
// the domain service computes the next session value.
type System interface {
	Start(ctx context.Context, req CreateSessionRequest) (*Session, error)
	BeginTraining(ctx context.Context, id uuid.UUID) (*Session, error)
	BeginEvaluation(ctx context.Context, id uuid.UUID) (*Session, error)
	Complete(ctx context.Context, id uuid.UUID) (*Session, error)
	Fail(ctx context.Context, id uuid.UUID) (*Session, error)
	RecordMetrics(ctx context.Context, id uuid.UUID, metrics Metrics) (*Session, error)
	SaveSnapshot(ctx context.Context, id uuid.UUID, snapshot ModelSnapshot) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*Session, error)
	FindByType(ctx context.Context, sessionType SessionType) ([]*Session, error)
	FindByStatus(ctx context.Context, status SessionStatus) ([]*Session, error)
	History(ctx context.Context, agentID uuid.UUID, limit int) ([]*Session, error)
	ActiveSessions(ctx context.Context) ([]*Session, error)
	ListAll(ctx context.Context) ([]*Session, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status SessionStatus) (int, error)
	Statistics(ctx context.Context) (*Statistics, error)
	EvaluatePerformance(ctx context.Context, id uuid.UUID) (float64, error)
}
