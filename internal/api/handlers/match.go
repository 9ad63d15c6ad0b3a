package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Matcher runs the candidate selection and ranking pipeline
type Matcher interface {
	Match(ctx context.Context, req *models.MatchRequest) (*models.MatchResponse, error)
}

// MatchHandler handles fundi match requests
func MatchHandler(cfg *config.Config, matcher Matcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		logger.Info("Match request received")

		var req models.MatchRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind match request", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			logger.Error("Match request validation failed", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Processing match request", map[string]interface{}{
			"service_type": req.ServiceType,
			"urgency":      req.Urgency,
			"location":     req.Location,
		})

		response, err := matcher.Match(c.Request().Context(), &req)
		if err != nil {
			return matchErrorResponse(c, logger, requestID, err)
		}

		logger.Info("Match request completed successfully", map[string]interface{}{
			"total_found":     response.TotalFound,
			"processing_time": time.Since(start).String(),
		})

		return c.JSON(http.StatusOK, response)
	}
}

// matchErrorResponse maps pipeline errors onto HTTP responses. Validation
// failures are the caller's fault; everything else is ours.
func matchErrorResponse(c echo.Context, logger logging.Logger, requestID string, err error) error {
	var custom *utils.CustomError
	if errors.As(err, &custom) {
		errorCode := "match_failed"
		if custom.Code == http.StatusBadRequest {
			errorCode = "validation_failed"
		}

		logger.Error("Match request failed", map[string]interface{}{
			"error":  custom.Error(),
			"status": custom.Code,
		})

		return c.JSON(custom.Code, models.ErrorResponse{
			Error:     errorCode,
			Message:   custom.Error(),
			RequestID: requestID,
			Timestamp: time.Now(),
		})
	}

	logger.Error("Match request failed", map[string]interface{}{
		"error": err.Error(),
	})

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:     "match_failed",
		Message:   err.Error(),
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}
