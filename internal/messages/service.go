package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service is the messaging domain contract. It materializes messages from
// send requests; delivery is the caller's concern.
type Service interface {
	ComposeMessage(ctx context.Context, req SendMessageRequest) (*Message, error)
}

type service struct {
	now func() time.Time
}

// NewService creates the default messaging service.
func NewService() Service {
	return &service{now: time.Now}
}

// ComposeMessage materializes a message. A nil receiver marks a broadcast.
func (s *service) ComposeMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	if req.SenderID == uuid.Nil {
		return nil, fmt.Errorf("%w: sender id required", ErrInvalidRequest)
	}
	if err := req.Type.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Content.Text == nil && len(req.Content.Data) == 0 {
		return nil, fmt.Errorf("%w: content requires text or data", ErrInvalidRequest)
	}

	for i, a := range req.Content.Attachments {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: attachment %d has no name", ErrInvalidRequest, i)
		}
	}

	return &Message{
		ID:         uuid.New(),
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Type:       req.Type,
		Content:    req.Content,
		Metadata:   req.Metadata,
		Timestamp:  s.now().UTC(),
	}, nil
}
