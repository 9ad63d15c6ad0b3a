package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"
)

// RedisClient wraps the Redis client with chat session management
type RedisClient struct {
	client *redis.Client
	config *config.Config
	logger logging.Logger
}

// ConversationEntry represents a single message exchanged with a customer
type ConversationEntry struct {
	ID        string    `json:"id"`
	Direction string    `json:"direction"` // "incoming" or "outgoing"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSession represents the chat state for one customer phone number.
// OfferedFundiIDs holds the candidates from the last list the bot sent, so a
// later "book 2" reply can be resolved against it.
type ConversationSession struct {
	PhoneNumber     string              `json:"phone_number"`
	Entries         []ConversationEntry `json:"entries"`
	OfferedFundiIDs []string            `json:"offered_fundi_ids,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	return &RedisClient{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetSession retrieves the conversation session for a phone number
func (r *RedisClient) GetSession(ctx context.Context, phoneNumber string) (*ConversationSession, error) {
	sessionJSON, err := r.client.Get(ctx, r.getSessionKey(phoneNumber)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("conversation session not found for %s", phoneNumber)
		}
		return nil, fmt.Errorf("failed to get conversation session: %w", err)
	}

	var session ConversationSession
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation session: %w", err)
	}

	return &session, nil
}

// AppendMessage adds a message to the conversation session, creating the
// session on first contact.
func (r *RedisClient) AppendMessage(ctx context.Context, phoneNumber string, entry ConversationEntry) error {
	session, err := r.GetSession(ctx, phoneNumber)
	if err != nil {
		session = &ConversationSession{
			PhoneNumber: phoneNumber,
			Entries:     []ConversationEntry{},
			CreatedAt:   time.Now(),
		}
	}

	entry.ID = GenerateRequestID()
	entry.Timestamp = time.Now()
	session.Entries = append(session.Entries, entry)
	session.UpdatedAt = time.Now()

	// Keep only the last 50 entries to manage memory
	if len(session.Entries) > 50 {
		session.Entries = session.Entries[len(session.Entries)-50:]
	}

	if err := r.saveSession(ctx, session); err != nil {
		r.logger.Error("Failed to save conversation entry", map[string]interface{}{
			"phone_number": phoneNumber,
			"entry_id":     entry.ID,
			"error":        err.Error(),
		})
		return err
	}

	return nil
}

// SetOfferedCandidates records the fundi IDs from the last list sent to the
// customer so that a numeric booking reply can be resolved.
func (r *RedisClient) SetOfferedCandidates(ctx context.Context, phoneNumber string, fundiIDs []string) error {
	session, err := r.GetSession(ctx, phoneNumber)
	if err != nil {
		session = &ConversationSession{
			PhoneNumber: phoneNumber,
			Entries:     []ConversationEntry{},
			CreatedAt:   time.Now(),
		}
	}

	session.OfferedFundiIDs = fundiIDs
	session.UpdatedAt = time.Now()

	return r.saveSession(ctx, session)
}

// DeleteSession removes the conversation session for a phone number
func (r *RedisClient) DeleteSession(ctx context.Context, phoneNumber string) error {
	return r.client.Del(ctx, r.getSessionKey(phoneNumber)).Err()
}

// IsHealthy checks if Redis is connected and healthy
func (r *RedisClient) IsHealthy(ctx context.Context) error {
	return r.Ping(ctx)
}

func (r *RedisClient) saveSession(ctx context.Context, session *ConversationSession) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation session: %w", err)
	}

	// Sessions expire after 24 hours of inactivity
	err = r.client.Set(ctx, r.getSessionKey(session.PhoneNumber), sessionJSON, 24*time.Hour).Err()
	if err != nil {
		return fmt.Errorf("failed to save conversation session: %w", err)
	}

	return nil
}

// getSessionKey generates the Redis key for a conversation session
func (r *RedisClient) getSessionKey(phoneNumber string) string {
	return fmt.Sprintf("conversation:phone:%s", phoneNumber)
}
