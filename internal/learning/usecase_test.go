package learning_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/agentplane/agentplane/internal/agents"
	"github.com/agentplane/agentplane/internal/learning"
	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/internal/security"
	"github.com/agentplane/agentplane/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*learning.Session
	updates  int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*learning.Session{}}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *learning.Session) (*learning.Session, error) {
	stored := *session
	r.sessions[session.ID] = &stored
	return session, nil
}

func (r *fakeSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*learning.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, learning.ErrNotFound
	}
	found := *session
	return &found, nil
}

func (r *fakeSessionRepo) FindByAgent(ctx context.Context, agentID uuid.UUID) ([]*learning.Session, error) {
	return r.filter(func(s *learning.Session) bool { return s.AgentID == agentID }), nil
}

func (r *fakeSessionRepo) FindByType(ctx context.Context, sessionType learning.SessionType) ([]*learning.Session, error) {
	return r.filter(func(s *learning.Session) bool { return s.Type == sessionType }), nil
}

func (r *fakeSessionRepo) FindByStatus(ctx context.Context, status learning.SessionStatus) ([]*learning.Session, error) {
	return r.filter(func(s *learning.Session) bool { return s.Status == status }), nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context) ([]*learning.Session, error) {
	return r.filter(func(*learning.Session) bool { return true }), nil
}

func (r *fakeSessionRepo) History(ctx context.Context, agentID uuid.UUID, limit int) ([]*learning.Session, error) {
	sessions := r.filter(func(s *learning.Session) bool { return s.AgentID == agentID })
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *learning.Session) (*learning.Session, error) {
	if _, ok := r.sessions[session.ID]; !ok {
		return nil, learning.ErrNotFound
	}
	stored := *session
	r.sessions[session.ID] = &stored
	r.updates++
	return session, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) Count(ctx context.Context) (int, error) {
	return len(r.sessions), nil
}

func (r *fakeSessionRepo) CountByStatus(ctx context.Context, status learning.SessionStatus) (int, error) {
	return len(r.filter(func(s *learning.Session) bool { return s.Status == status })), nil
}

func (r *fakeSessionRepo) filter(keep func(*learning.Session) bool) []*learning.Session {
	results := make([]*learning.Session, 0)
	for _, session := range r.sessions {
		if keep(session) {
			found := *session
			results = append(results, &found)
		}
	}
	return results
}

type fakeAgentRepo struct {
	agents map[uuid.UUID]*agents.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: map[uuid.UUID]*agents.Agent{}}
}

func (r *fakeAgentRepo) add() uuid.UUID {
	id := uuid.New()
	r.agents[id] = &agents.Agent{ID: id, Status: agents.StatusActive}
	return id
}

func (r *fakeAgentRepo) Create(ctx context.Context, agent *agents.Agent) (*agents.Agent, error) {
	r.agents[agent.ID] = agent
	return agent, nil
}

func (r *fakeAgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*agents.Agent, error) {
	agent, ok := r.agents[id]
	if !ok {
		return nil, agents.ErrNotFound
	}
	return agent, nil
}

func (r *fakeAgentRepo) FindByName(ctx context.Context, name string) (*agents.Agent, error) {
	return nil, agents.ErrNotFound
}

func (r *fakeAgentRepo) FindByType(ctx context.Context, agentType agents.AgentType) ([]*agents.Agent, error) {
	return nil, nil
}

func (r *fakeAgentRepo) FindByStatus(ctx context.Context, status agents.AgentStatus) ([]*agents.Agent, error) {
	return nil, nil
}

func (r *fakeAgentRepo) FindAll(ctx context.Context) ([]*agents.Agent, error) {
	return nil, nil
}

func (r *fakeAgentRepo) List(ctx context.Context, page pagination.PageRequest, filters agents.Filters) (*pagination.PageResult[agents.Agent], error) {
	return nil, nil
}

func (r *fakeAgentRepo) Update(ctx context.Context, agent *agents.Agent) (*agents.Agent, error) {
	return agent, nil
}

func (r *fakeAgentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (r *fakeAgentRepo) Count(ctx context.Context) (int, error) {
	return len(r.agents), nil
}

func (r *fakeAgentRepo) CountByStatus(ctx context.Context, status agents.AgentStatus) (int, error) {
	return 0, nil
}

func newLearningSystem(denied ...string) (learning.System, *fakeSessionRepo, *fakeAgentRepo) {
	sessionRepo := newFakeSessionRepo()
	agentRepo := newFakeAgentRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := learning.NewSystem(
		sessionRepo, agentRepo, learning.NewService(testLimits()),
		security.NewStatic(nil, denied...), logger,
	)
	return sys, sessionRepo, agentRepo
}

func startSession(t *testing.T, sys learning.System, agentID uuid.UUID) *learning.Session {
	t.Helper()

	session, err := sys.Start(context.Background(), learning.CreateSessionRequest{
		AgentID: agentID,
		Type:    learning.TypeSupervised,
		TrainingData: []learning.TrainingData{
			{Input: json.RawMessage(`{"x": 1}`), ExpectedOutput: json.RawMessage(`{"y": 2}`)},
		},
	})
	require.NoError(t, err)
	return session
}

func TestStartRequiresExistingAgent(t *testing.T) {
	sys, sessionRepo, _ := newLearningSystem()

	_, err := sys.Start(context.Background(), learning.CreateSessionRequest{
		AgentID: uuid.New(),
		Type:    learning.TypeSupervised,
	})

	require.ErrorIs(t, err, learning.ErrAgentNotFound)
	require.Empty(t, sessionRepo.sessions)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newLearningSystem()
	session := startSession(t, sys, agentRepo.add())

	training, err := sys.BeginTraining(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, learning.StatusTraining, training.Status)

	evaluating, err := sys.BeginEvaluation(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, learning.StatusEvaluating, evaluating.Status)

	completed, err := sys.Complete(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, learning.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.Metrics.Accuracy, "completion computes final metrics")
	require.Equal(t, float64(1), completed.Metrics.Custom["training_records"])

	stats, err := sys.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalSessions)
	require.Equal(t, 1, stats.CompletedSessions)
	require.Zero(t, stats.PreparingSessions)
}

func TestIllegalSessionTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("skip training phase", func(t *testing.T) {
		sys, sessionRepo, agentRepo := newLearningSystem()
		session := startSession(t, sys, agentRepo.add())

		_, err := sys.BeginEvaluation(ctx, session.ID)

		require.ErrorIs(t, err, learning.ErrIllegalTransition)
		require.Zero(t, sessionRepo.updates, "persistence must not be reached for an illegal move")
	})

	t.Run("complete without evaluating", func(t *testing.T) {
		sys, _, agentRepo := newLearningSystem()
		session := startSession(t, sys, agentRepo.add())

		_, err := sys.Complete(ctx, session.ID)
		require.ErrorIs(t, err, learning.ErrIllegalTransition)
	})

	t.Run("fail a failed session", func(t *testing.T) {
		sys, _, agentRepo := newLearningSystem()
		session := startSession(t, sys, agentRepo.add())

		_, err := sys.Fail(ctx, session.ID)
		require.NoError(t, err)

		_, err = sys.Fail(ctx, session.ID)
		require.ErrorIs(t, err, learning.ErrIllegalTransition)
	})
}

func TestFailFromAnyActiveState(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newLearningSystem()
	session := startSession(t, sys, agentRepo.add())

	_, err := sys.BeginTraining(ctx, session.ID)
	require.NoError(t, err)

	failed, err := sys.Fail(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, learning.StatusFailed, failed.Status)
	require.NotNil(t, failed.CompletedAt)
}

func TestTerminalSessionsAreImmutable(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newLearningSystem()
	session := startSession(t, sys, agentRepo.add())

	_, err := sys.Fail(ctx, session.ID)
	require.NoError(t, err)

	accuracy := 0.5
	_, err = sys.RecordMetrics(ctx, session.ID, learning.Metrics{Accuracy: &accuracy})
	require.ErrorIs(t, err, learning.ErrIllegalTransition)

	_, err = sys.SaveSnapshot(ctx, session.ID, learning.ModelSnapshot{Data: []byte("weights")})
	require.ErrorIs(t, err, learning.ErrIllegalTransition)
}

func TestSaveSnapshot(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newLearningSystem()
	session := startSession(t, sys, agentRepo.add())

	updated, err := sys.SaveSnapshot(ctx, session.ID, learning.ModelSnapshot{Data: []byte("weights"), Version: "1"})
	require.NoError(t, err)
	require.NotNil(t, updated.Snapshot)
	require.NotEmpty(t, updated.Snapshot.Checksum)

	huge := make([]byte, 2048)
	_, err = sys.SaveSnapshot(ctx, session.ID, learning.ModelSnapshot{Data: huge})
	require.ErrorIs(t, err, learning.ErrSnapshotTooLarge)
}

func TestRecordMetrics(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newLearningSystem()
	session := startSession(t, sys, agentRepo.add())

	loss := 0.42
	updated, err := sys.RecordMetrics(ctx, session.ID, learning.Metrics{Loss: &loss})
	require.NoError(t, err)
	require.NotNil(t, updated.Metrics.Loss)
	require.Equal(t, 0.42, *updated.Metrics.Loss)
	require.Equal(t, learning.StatusPreparing, updated.Status, "metrics must not touch the lifecycle")
}

func TestHistoryLimit(t *testing.T) {
	sys, _, agentRepo := newLearningSystem()
	agentID := agentRepo.add()

	_, err := sys.History(context.Background(), agentID, 0)
	require.ErrorIs(t, err, learning.ErrInvalidRequest)

	startSession(t, sys, agentID)
	startSession(t, sys, agentID)
	startSession(t, sys, agentID)

	history, err := sys.History(context.Background(), agentID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestActiveSessions(t *testing.T) {
	ctx := context.Background()
	sys, sessionRepo, agentRepo := newLearningSystem()
	agentID := agentRepo.add()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []learning.SessionStatus{
		learning.StatusPreparing, learning.StatusTraining, learning.StatusCompleted,
	} {
		id := uuid.New()
		sessionRepo.sessions[id] = &learning.Session{
			ID:        id,
			AgentID:   agentID,
			Type:      learning.TypeSupervised,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}

	active, err := sys.ActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2, "terminal sessions are not active")
	require.True(t, active[0].CreatedAt.After(active[1].CreatedAt), "newest first")
}

func TestFindSessionsByType(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newLearningSystem()
	agentID := agentRepo.add()

	data := []learning.TrainingData{{Input: json.RawMessage(`{"x": 1}`)}}
	for _, sessionType := range []learning.SessionType{
		learning.TypeSupervised, learning.TypeReinforcement, learning.TypeReinforcement,
	} {
		_, err := sys.Start(ctx, learning.CreateSessionRequest{
			AgentID:      agentID,
			Type:         sessionType,
			TrainingData: data,
		})
		require.NoError(t, err)
	}

	reinforcement, err := sys.FindByType(ctx, learning.TypeReinforcement)
	require.NoError(t, err)
	require.Len(t, reinforcement, 2)
	for _, session := range reinforcement {
		require.Equal(t, learning.TypeReinforcement, session.Type)
	}

	transfer, err := sys.FindByType(ctx, learning.TypeTransfer)
	require.NoError(t, err)
	require.Empty(t, transfer)
}

func TestEvaluatePerformance(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newLearningSystem()
	session := startSession(t, sys, agentRepo.add())

	accuracy, f1 := 0.9, 0.8
	_, err := sys.RecordMetrics(ctx, session.ID, learning.Metrics{Accuracy: &accuracy, F1Score: &f1})
	require.NoError(t, err)

	score, err := sys.EvaluatePerformance(ctx, session.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.85, score, 1e-9)
}

func TestLearningAuthorization(t *testing.T) {
	sys, sessionRepo, agentRepo := newLearningSystem("create:learning")

	_, err := sys.Start(context.Background(), learning.CreateSessionRequest{
		AgentID: agentRepo.add(),
		Type:    learning.TypeSupervised,
	})

	require.ErrorIs(t, err, platform.ErrAuthorization)
	require.Empty(t, sessionRepo.sessions)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	sys, sessionRepo, agentRepo := newLearningSystem()
	session := startSession(t, sys, agentRepo.add())

	require.ErrorIs(t, sys.Delete(ctx, uuid.New()), learning.ErrNotFound)

	require.NoError(t, sys.Delete(ctx, session.ID))
	require.NotContains(t, sessionRepo.sessions, session.ID)
}
