package messages_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/agentplane/agentplane/internal/agents"
	"github.com/agentplane/agentplane/internal/messages"
	"github.com/agentplane/agentplane/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeMessageRepo struct {
	messages map[uuid.UUID]*messages.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[uuid.UUID]*messages.Message{}}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *messages.Message) (*messages.Message, error) {
	stored := *message
	r.messages[message.ID] = &stored
	return message, nil
}

func (r *fakeMessageRepo) FindByID(ctx context.Context, id uuid.UUID) (*messages.Message, error) {
	message, ok := r.messages[id]
	if !ok {
		return nil, messages.ErrNotFound
	}
	found := *message
	return &found, nil
}

func (r *fakeMessageRepo) FindBySender(ctx context.Context, senderID uuid.UUID) ([]*messages.Message, error) {
	return r.filter(func(m *messages.Message) bool { return m.SenderID == senderID }), nil
}

func (r *fakeMessageRepo) FindByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*messages.Message, error) {
	return r.filter(func(m *messages.Message) bool {
		return m.ReceiverID != nil && *m.ReceiverID == receiverID
	}), nil
}

func (r *fakeMessageRepo) FindByType(ctx context.Context, messageType messages.MessageType) ([]*messages.Message, error) {
	return r.filter(func(m *messages.Message) bool { return m.Type == messageType }), nil
}

func (r *fakeMessageRepo) Conversation(ctx context.Context, a, b uuid.UUID) ([]*messages.Message, error) {
	exchange := r.filter(func(m *messages.Message) bool {
		if m.ReceiverID == nil {
			return false
		}
		return (m.SenderID == a && *m.ReceiverID == b) || (m.SenderID == b && *m.ReceiverID == a)
	})
	sort.Slice(exchange, func(i, j int) bool {
		return exchange[i].Timestamp.Before(exchange[j].Timestamp)
	})
	return exchange, nil
}

func (r *fakeMessageRepo) Recent(ctx context.Context, limit int) ([]*messages.Message, error) {
	all := r.filter(func(*messages.Message) bool { return true })
	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeMessageRepo) Update(ctx context.Context, message *messages.Message) (*messages.Message, error) {
	if _, ok := r.messages[message.ID]; !ok {
		return nil, messages.ErrNotFound
	}
	stored := *message
	r.messages[message.ID] = &stored
	return message, nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) Count(ctx context.Context) (int, error) {
	return len(r.messages), nil
}

func (r *fakeMessageRepo) filter(keep func(*messages.Message) bool) []*messages.Message {
	results := make([]*messages.Message, 0)
	for _, message := range r.messages {
		if keep(message) {
			found := *message
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

func newMessageSystem() (messages.System, *fakeMessageRepo, *fakeAgentRepo) {
	messageRepo := newFakeMessageRepo()
	agentRepo := newFakeAgentRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := messages.NewSystem(messageRepo, agentRepo, messages.NewService(), logger)
	return sys, messageRepo, agentRepo
}

func textRequest(sender uuid.UUID, receiver *uuid.UUID, body string) messages.SendMessageRequest {
	return messages.SendMessageRequest{
		SenderID:   sender,
		ReceiverID: receiver,
		Type:       messages.TypeText,
		Content:    messages.Content{Text: &body},
	}
}

func TestSendRequiresReceiver(t *testing.T) {
	sys, messageRepo, agentRepo := newMessageSystem()
	sender := agentRepo.add()

	_, err := sys.Send(context.Background(), textRequest(sender, nil, "hello"))

	require.ErrorIs(t, err, messages.ErrInvalidRequest)
	require.Empty(t, messageRepo.messages)
}

func TestSendChecksBothParties(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newMessageSystem()
	sender := agentRepo.add()

	ghost := uuid.New()
	_, err := sys.Send(ctx, textRequest(sender, &ghost, "hello"))
	require.ErrorIs(t, err, messages.ErrAgentNotFound)

	_, err = sys.Send(ctx, textRequest(uuid.New(), &sender, "hello"))
	require.ErrorIs(t, err, messages.ErrAgentNotFound)
}

func TestSendPersistsMessage(t *testing.T) {
	sys, messageRepo, agentRepo := newMessageSystem()
	sender, receiver := agentRepo.add(), agentRepo.add()

	message, err := sys.Send(context.Background(), textRequest(sender, &receiver, "hello"))

	require.NoError(t, err)
	require.Contains(t, messageRepo.messages, message.ID)
	require.Equal(t, sender, message.SenderID)
	require.NotNil(t, message.ReceiverID)
}

func TestBroadcastClearsReceiver(t *testing.T) {
	sys, _, agentRepo := newMessageSystem()
	sender := agentRepo.add()
	stray := uuid.New()

	message, err := sys.Broadcast(context.Background(), textRequest(sender, &stray, "attention"))

	require.NoError(t, err)
	require.Nil(t, message.ReceiverID, "broadcasts are addressed to no one")
}

func TestBroadcastChecksSender(t *testing.T) {
	sys, _, _ := newMessageSystem()

	_, err := sys.Broadcast(context.Background(), textRequest(uuid.New(), nil, "attention"))

	require.ErrorIs(t, err, messages.ErrAgentNotFound)
}

func TestConversation(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newMessageSystem()
	alpha, beta, other := agentRepo.add(), agentRepo.add(), agentRepo.add()

	_, err := sys.Send(ctx, textRequest(alpha, &beta, "first"))
	require.NoError(t, err)
	_, err = sys.Send(ctx, textRequest(beta, &alpha, "second"))
	require.NoError(t, err)
	_, err = sys.Send(ctx, textRequest(alpha, &other, "unrelated"))
	require.NoError(t, err)

	exchange, err := sys.Conversation(ctx, alpha, beta)
	require.NoError(t, err)
	require.Len(t, exchange, 2)
	require.Equal(t, "first", *exchange[0].Content.Text)
	require.Equal(t, "second", *exchange[1].Content.Text)
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	sys, _, agentRepo := newMessageSystem()
	sender, receiver := agentRepo.add(), agentRepo.add()

	_, err := sys.Recent(ctx, 0)
	require.ErrorIs(t, err, messages.ErrInvalidRequest)

	for range 3 {
		_, err := sys.Send(ctx, textRequest(sender, &receiver, "ping"))
		require.NoError(t, err)
	}

	recent, err := sys.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
}

func TestDeleteMessage(t *testing.T) {
	ctx := context.Background()
	sys, messageRepo, agentRepo := newMessageSystem()
	sender, receiver := agentRepo.add(), agentRepo.add()

	message, err := sys.Send(ctx, textRequest(sender, &receiver, "hello"))
	require.NoError(t, err)

	require.ErrorIs(t, sys.Delete(ctx, uuid.New()), messages.ErrNotFound)

	require.NoError(t, sys.Delete(ctx, message.ID))
	require.NotContains(t, messageRepo.messages, message.ID)
}
