package bot

import (
	"context"
	"time"

	"mtaanifix-api/internal/logging"
	"mtaanifix-api/internal/store"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"
)

// MessageSender delivers outgoing chat messages
type MessageSender interface {
	SendTextMessage(ctx context.Context, to, message string) error
}

// MessageLogger persists the message log
type MessageLogger interface {
	LogMessage(ctx context.Context, phoneNumber, direction, content, sessionID string) error
}

// Processor handles one inbound WhatsApp message end to end: log it, compose
// a reply, deliver it, log the reply. It is the unit of work executed by the
// message worker pool.
type Processor struct {
	responder  *Responder
	messages   MessageLogger
	sessions   SessionStore
	sender     MessageSender
	maxRetries int
	logger     logging.Logger
}

// NewProcessor creates a message processor
func NewProcessor(responder *Responder, messages MessageLogger, sessions SessionStore, sender MessageSender, maxRetries int) *Processor {
	return &Processor{
		responder:  responder,
		messages:   messages,
		sessions:   sessions,
		sender:     sender,
		maxRetries: maxRetries,
		logger:     logging.GetGlobalLogger().WithField("component", "bot_processor"),
	}
}

// Process replies to a single text message. Logging failures are data-loss
// warnings, not request failures; a failed delivery fails the whole message.
func (p *Processor) Process(ctx context.Context, msg models.WhatsAppMessage) (string, error) {
	if msg.Text == nil {
		p.logger.Debug("Skipping non-text message", map[string]interface{}{
			"message_id": msg.ID,
			"type":       msg.Type,
		})
		return "", nil
	}

	body := msg.Text.Body

	if err := p.messages.LogMessage(ctx, msg.From, store.DirectionIncoming, body, msg.ID); err != nil {
		p.logger.Warn("Failed to log incoming message", map[string]interface{}{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}
	if err := p.sessions.AppendMessage(ctx, msg.From, utils.ConversationEntry{
		Direction: store.DirectionIncoming,
		Content:   body,
	}); err != nil {
		p.logger.Warn("Failed to append session entry", map[string]interface{}{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}

	reply := p.responder.Reply(ctx, msg.From, body)

	if err := p.sendWithRetry(ctx, msg.From, reply); err != nil {
		return "", err
	}

	if err := p.messages.LogMessage(ctx, msg.From, store.DirectionOutgoing, reply, msg.ID); err != nil {
		p.logger.Warn("Failed to log outgoing message", map[string]interface{}{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}
	if err := p.sessions.AppendMessage(ctx, msg.From, utils.ConversationEntry{
		Direction: store.DirectionOutgoing,
		Content:   reply,
	}); err != nil {
		p.logger.Warn("Failed to append session entry", map[string]interface{}{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}

	return reply, nil
}

// sendWithRetry attempts the outbound delivery with linear backoff
func (p *Processor) sendWithRetry(ctx context.Context, to, message string) error {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := p.sender.SendTextMessage(ctx, to, message); err != nil {
			lastErr = err
			p.logger.Debug("Message delivery attempt failed", map[string]interface{}{
				"to":      to,
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
			continue
		}

		return nil
	}

	return lastErr
}
