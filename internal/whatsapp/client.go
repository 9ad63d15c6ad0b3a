package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"
	"mtaanifix-api/pkg/utils"
)

// Client sends messages through the WhatsApp Cloud API
type Client struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
	logger        logging.Logger
}

// textPayload is the Cloud API body for a plain text message
type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// NewClient creates a WhatsApp Cloud API client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.WhatsApp.Timeout},
		baseURL:       cfg.WhatsApp.APIBaseURL,
		accessToken:   cfg.WhatsApp.AccessToken,
		phoneNumberID: cfg.WhatsApp.PhoneNumberID,
		logger:        logging.GetGlobalLogger().WithField("component", "whatsapp_client"),
	}
}

// IsConfigured reports whether credentials are present. Sends fail fast when
// they are not.
func (c *Client) IsConfigured() bool {
	return c.accessToken != "" && c.phoneNumberID != ""
}

// SendTextMessage delivers a text reply to the given phone number
func (c *Client) SendTextMessage(ctx context.Context, to, message string) error {
	if !c.IsConfigured() {
		return utils.NewDeliveryError("whatsapp credentials not configured")
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: message},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.NewDeliveryError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("WhatsApp send rejected", map[string]interface{}{
			"to":     to,
			"status": resp.StatusCode,
			"body":   string(respBody),
		})
		return utils.NewDeliveryError(fmt.Sprintf("send failed with status %d", resp.StatusCode))
	}

	c.logger.Debug("WhatsApp message sent", map[string]interface{}{"to": to})
	return nil
}
