package messages

import (
	"context"

	"github.com/google/uuid"
)

// System is the messaging use-case contract exposed to the transport layer.
type System interface {
	Send(ctx context.Context, req SendMessageRequest) (*Message, error)
	Broadcast(ctx context.Context, req SendMessageRequest) (*Message, error)
	Find(ctx context.Context, id uuid.UUID) (*Message, error)
	FindBySender(ctx context.Context, senderID uuid.UUID) ([]*Message, error)
	FindByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*Message, error)
	FindByType(ctx context.Context, messageType MessageType) ([]*Message, error)
	Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error)
	Recent(ctx context.Context, limit int) ([]*Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}
