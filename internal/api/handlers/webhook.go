package handlers

import (
	"context"
	"net/http"
	"time"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"
	"mtaanifix-api/internal/workers"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"

	"github.com/labstack/echo/v4"
)

// MessageSubmitter hands inbound messages to the worker pool
type MessageSubmitter interface {
	SubmitMessage(ctx context.Context, msg models.WhatsAppMessage) (*workers.JobResult, error)
}

// VerifyWebhookHandler handles the Meta webhook verification handshake. Meta
// calls this once with the configured verify token and expects the challenge
// echoed back verbatim.
func VerifyWebhookHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.GetGlobalLogger().WithField("component", "webhook")

		mode := c.QueryParam("hub.mode")
		token := c.QueryParam("hub.verify_token")
		challenge := c.QueryParam("hub.challenge")

		if mode == "subscribe" && token == cfg.WhatsApp.VerifyToken {
			logger.Info("Webhook verified successfully")
			return c.String(http.StatusOK, challenge)
		}

		logger.Warn("Webhook verification rejected", map[string]interface{}{
			"mode": mode,
		})
		return c.String(http.StatusForbidden, "Forbidden")
	}
}

// ReceiveWebhookHandler handles inbound WhatsApp webhook notifications. Each
// text message in the payload is submitted to the worker pool; status-only
// notifications are acknowledged without work.
func ReceiveWebhookHandler(pool MessageSubmitter) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var payload models.WebhookPayload
		if err := c.Bind(&payload); err != nil {
			logger.Error("Failed to bind webhook payload", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid webhook payload",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		processed := 0
		for _, entry := range payload.Entry {
			for _, change := range entry.Changes {
				for _, msg := range change.Value.Messages {
					result, err := pool.SubmitMessage(c.Request().Context(), msg)
					if err != nil {
						logger.Error("Failed to submit webhook message", map[string]interface{}{
							"message_id": msg.ID,
							"from":       msg.From,
							"error":      err.Error(),
						})
						return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
							Error:     "message_processing_failed",
							Message:   "Failed to process incoming message",
							RequestID: requestID,
							Timestamp: time.Now(),
						})
					}
					if result.Error != nil {
						logger.Error("Webhook message processing failed", map[string]interface{}{
							"message_id": msg.ID,
							"from":       msg.From,
							"error":      result.Error.Error(),
						})
						return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
							Error:     "message_processing_failed",
							Message:   result.Error.Error(),
							RequestID: requestID,
							Timestamp: time.Now(),
						})
					}
					processed++
				}
			}
		}

		logger.Info("Webhook processed", map[string]interface{}{
			"messages": processed,
		})

		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":    true,
			"processed":  processed,
			"request_id": requestID,
		})
	}
}
