package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mtaanifix-api/internal/logging"
)

// Message direction values as stored in the message log.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// ChatMessage is one row of the WhatsApp message log
type ChatMessage struct {
	ID          int64
	PhoneNumber string
	Direction   string
	Content     string
	SessionID   string
	CreatedAt   time.Time
}

// MessageRepository persists the WhatsApp message log
type MessageRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewMessageRepository creates a message repository on top of the store client
func NewMessageRepository(client *Client) *MessageRepository {
	return &MessageRepository{
		db:     client.DB,
		logger: logging.GetGlobalLogger().WithField("component", "message_repository"),
	}
}

// LogMessage inserts one incoming or outgoing message row
func (r *MessageRepository) LogMessage(ctx context.Context, phoneNumber, direction, content, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO whatsapp_messages (phone_number, message_type, message_content, session_id)
		VALUES ($1, $2, $3, $4)`,
		phoneNumber, direction, content, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to log %s message: %w", direction, err)
	}
	return nil
}

// RecentMessages returns the latest messages exchanged with a phone number,
// newest first.
func (r *MessageRepository) RecentMessages(ctx context.Context, phoneNumber string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, phone_number, message_type, message_content, session_id, created_at
		FROM whatsapp_messages
		WHERE phone_number = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		phoneNumber, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("message log query failed: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.PhoneNumber, &m.Direction, &m.Content, &m.SessionID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("message row iteration failed: %w", err)
	}

	return messages, nil
}
