package models

// WhatsAppText carries the body of a text message.
type WhatsAppText struct {
	Body string `json:"body"`
}

// WhatsAppMessage represents a single inbound message from the WhatsApp
// Cloud API webhook payload.
type WhatsAppMessage struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *WhatsAppText `json:"text,omitempty"`
}

// WebhookChangeValue holds either new messages or delivery status updates.
// Status updates are passed through untyped; the bot only reacts to messages.
type WebhookChangeValue struct {
	Messages []WhatsAppMessage        `json:"messages,omitempty"`
	Statuses []map[string]interface{} `json:"statuses,omitempty"`
}

// WebhookChange wraps a single change notification.
type WebhookChange struct {
	Field string             `json:"field,omitempty"`
	Value WebhookChangeValue `json:"value"`
}

// WebhookEntry groups the changes delivered for one WhatsApp business account.
type WebhookEntry struct {
	ID      string          `json:"id,omitempty"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookPayload is the top-level WhatsApp Cloud API webhook body.
type WebhookPayload struct {
	Object string         `json:"object,omitempty"`
	Entry  []WebhookEntry `json:"entry"`
}
