package messages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentplane/agentplane/internal/agents"
	"github.com/agentplane/agentplane/internal/platform"
	"github.com/google/uuid"
)

type system struct {
	repo    Repository
	agents  agents.Repository
	service Service
	logger  *slog.Logger
}

// NewSystem creates the messaging use-case orchestrator. The agent
// repository is consulted only for sender and receiver existence checks.
func NewSystem(repo Repository, agentRepo agents.Repository, service Service, logger *slog.Logger) System {
	return &system{
		repo:    repo,
		agents:  agentRepo,
		service: service,
		logger:  logger.With("usecase", "messages"),
	}
}

// Send verifies both parties exist, materializes the message, and persists
// it. A send request without a receiver is rejected; Broadcast covers that.
func (s *system) Send(ctx context.Context, req SendMessageRequest) (*Message, error) {
	if req.ReceiverID == nil {
		return nil, fmt.Errorf("%w: receiver id required", ErrInvalidRequest)
	}

	if err := s.checkAgent(ctx, req.SenderID); err != nil {
		return nil, err
	}
	if err := s.checkAgent(ctx, *req.ReceiverID); err != nil {
		return nil, err
	}

	return s.compose(ctx, req)
}

// Broadcast verifies the sender exists and persists the message addressed to
// no one in particular.
func (s *system) Broadcast(ctx context.Context, req SendMessageRequest) (*Message, error) {
	req.ReceiverID = nil

	if err := s.checkAgent(ctx, req.SenderID); err != nil {
		return nil, err
	}

	return s.compose(ctx, req)
}

// Find returns the message by id.
func (s *system) Find(ctx context.Context, id uuid.UUID) (*Message, error) {
	return s.repo.FindByID(ctx, id)
}

// FindBySender returns messages sent by the agent.
func (s *system) FindBySender(ctx context.Context, senderID uuid.UUID) ([]*Message, error) {
	return s.repo.FindBySender(ctx, senderID)
}

// FindByReceiver returns messages addressed to the agent.
func (s *system) FindByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*Message, error) {
	return s.repo.FindByReceiver(ctx, receiverID)
}

// FindByType returns messages of the given type.
func (s *system) FindByType(ctx context.Context, messageType MessageType) ([]*Message, error) {
	return s.repo.FindByType(ctx, messageType)
}

// Conversation returns the exchange between two agents, oldest first.
func (s *system) Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	return s.repo.Conversation(ctx, a, b)
}

// Recent returns the newest messages truncated to the caller-supplied limit.
func (s *system) Recent(ctx context.Context, limit int) ([]*Message, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidRequest)
	}
	return s.repo.Recent(ctx, limit)
}

// Delete checks existence, then removes the message.
func (s *system) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Count returns the total number of messages.
func (s *system) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *system) compose(ctx context.Context, req SendMessageRequest) (*Message, error) {
	message, err := s.service.ComposeMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, message)
}

func (s *system) checkAgent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.agents.FindByID(ctx, id); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return fmt.Errorf("%w: id %s", ErrAgentNotFound, id)
		}
		return err
	}
	return nil
}
