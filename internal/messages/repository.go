package messages

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
	"github.com/google/uuid"
)

// Repository is the message persistence contract. Messages are single-table
// aggregates; content and metadata are stored as JSON documents.
type Repository interface {
	Create(ctx context.Context, message *Message) (*Message, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	FindBySender(ctx context.Context, senderID uuid.UUID) ([]*Message, error)
	FindByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*Message, error)
	FindByType(ctx context.Context, messageType MessageType) ([]*Message, error)
	Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error)
	Recent(ctx context.Context, limit int) ([]*Message, error)
	Update(ctx context.Context, message *Message) (*Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates the Postgres-backed message repository.
func NewRepository(db *sql.DB, logger *slog.Logger) Repository {
	return &repo{
		db:     db,
		logger: logger.With("system", "messages"),
	}
}

// Create stores the message in one transaction and echoes it back unchanged.
func (r *repo) Create(ctx context.Context, message *Message) (*Message, error) {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.Exec(ctx, tx, `
			INSERT INTO messages (id, sender_id, receiver_id, message_type, content, metadata, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			message.ID, message.SenderID, message.ReceiverID, message.Type,
			mustJSON(message.Content), metadataJSON(message.Metadata), message.Timestamp,
		)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("message created", "id", message.ID, "sender_id", message.SenderID, "type", message.Type)
	return message, nil
}

// FindByID returns the message with the given id.
func (r *repo) FindByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildSingle("ID", id)

	message, err := repository.QueryOne(ctx, r.db, q, args, scanMessage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &message, nil
}

// FindBySender returns messages sent by the agent, newest first.
func (r *repo) FindBySender(ctx context.Context, senderID uuid.UUID) ([]*Message, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("SenderID", senderID).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindByReceiver returns messages addressed to the agent, newest first.
func (r *repo) FindByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*Message, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("ReceiverID", receiverID).
		BuildList()
	return r.findMany(ctx, q, args)
}

// FindByType returns messages of the given type, newest first.
func (r *repo) FindByType(ctx context.Context, messageType MessageType) ([]*Message, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("Type", messageType).
		BuildList()
	return r.findMany(ctx, q, args)
}

// Conversation returns the exchange between two agents in either direction,
// oldest first so the thread reads top to bottom.
func (r *repo) Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.timestamp ASC`,
		projection.Columns(), projection.Table(),
	)
	return r.findMany(ctx, q, []any{a, b})
}

// Recent returns the newest messages truncated to the caller-supplied limit.
func (r *repo) Recent(ctx context.Context, limit int) ([]*Message, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildPage(1, limit)
	return r.findMany(ctx, q, args)
}

// Update replaces the stored row with the supplied message in one
// transaction.
func (r *repo) Update(ctx context.Context, message *Message) (*Message, error) {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, `
			UPDATE messages
			SET sender_id = $2, receiver_id = $3, message_type = $4, content = $5, metadata = $6
			WHERE id = $1`,
			message.ID, message.SenderID, message.ReceiverID, message.Type,
			mustJSON(message.Content), metadataJSON(message.Metadata),
		)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("message updated", "id", message.ID)
	return message, nil
}

// Delete removes the message. Deleting a nonexistent id is a no-op success.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.Exec(ctx, tx, `DELETE FROM messages WHERE id = $1`, id)
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("message deleted", "id", id)
	return nil
}

// Count returns the total number of messages.
func (r *repo) Count(ctx context.Context) (int, error) {
	return repository.Count(ctx, r.db, `SELECT COUNT(*) FROM messages`)
}

func (r *repo) findMany(ctx context.Context, q string, args []any) ([]*Message, error) {
	results, err := repository.QueryMany(ctx, r.db, q, args, scanMessage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	messages := make([]*Message, len(results))
	for i := range results {
		messages[i] = &results[i]
	}
	return messages, nil
}

func metadataJSON(metadata map[string]string) any {
	if len(metadata) == 0 {
		return nil
	}
	return mustJSON(metadata)
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return data
}
