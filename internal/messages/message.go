// Package messages provides inter-agent messaging: the message model, the
// single-table repository, the messaging domain service, and the use-case
// orchestrator.
package messages

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType categorizes a message's content and intent.
type MessageType string

// Message type values.
const (
	TypeText     MessageType = "text"
	TypeData     MessageType = "data"
	TypeCommand  MessageType = "command"
	TypeResponse MessageType = "response"
	TypeError    MessageType = "error"
	TypeSystem   MessageType = "system"
)

// Validate checks if the type is a valid message type.
func (t MessageType) Validate() error {
	switch t {
	case TypeText, TypeData, TypeCommand, TypeResponse, TypeError, TypeSystem:
		return nil
	default:
		return fmt.Errorf("invalid message type: %s", t)
	}
}

// Attachment is a named binary payload carried inside message content.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"data"`
}

// Content is the typed body of a message. At least one of Text or Data must
// be present.
type Content struct {
	Text        *string         `json:"text,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
}

// Message is an exchange between agents. A nil ReceiverID marks a broadcast.
type Message struct {
	ID         uuid.UUID         `json:"id"`
	SenderID   uuid.UUID         `json:"sender_id"`
	ReceiverID *uuid.UUID        `json:"receiver_id,omitempty"`
	Type       MessageType       `json:"type"`
	Content    Content           `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// SendMessageRequest contains the data required to send a message. Identity
// and timestamp are assigned by the domain service; a nil ReceiverID sends a
// broadcast.
type SendMessageRequest struct {
	SenderID   uuid.UUID         `json:"sender_id"`
	ReceiverID *uuid.UUID        `json:"receiver_id,omitempty"`
	Type       MessageType       `json:"type"`
	Content    Content           `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
