package messages

import (
	"encoding/json"

	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "messages", "m").
	Project("id", "ID").
	Project("sender_id", "SenderID").
	Project("receiver_id", "ReceiverID").
	Project("message_type", "Type").
	Project("content", "Content").
	Project("metadata", "Metadata").
	Project("timestamp", "Timestamp")

// Finders return newest first.
var defaultSort = query.SortField{Field: "Timestamp", Descending: true}

func scanMessage(s repository.Scanner) (Message, error) {
	var (
		m        Message
		content  []byte
		metadata []byte
	)
	err := s.Scan(
		&m.ID,
		&m.SenderID,
		&m.ReceiverID,
		&m.Type,
		&content,
		&metadata,
		&m.Timestamp,
	)
	if err != nil {
		return m, err
	}

	if err := json.Unmarshal(content, &m.Content); err != nil {
		return m, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return m, err
		}
	}
	return m, nil
}
