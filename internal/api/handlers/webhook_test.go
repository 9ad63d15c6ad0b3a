package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/workers"
	"mtaanifix-api/pkg/models"
)

type stubSubmitter struct {
	submitErr error
	resultErr error
	submitted []models.WhatsAppMessage
}

func (s *stubSubmitter) SubmitMessage(ctx context.Context, msg models.WhatsAppMessage) (*workers.JobResult, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = append(s.submitted, msg)
	return &workers.JobResult{Reply: "ok", Error: s.resultErr}, nil
}

func verifyConfig() *config.Config {
	cfg := &config.Config{}
	cfg.WhatsApp.VerifyToken = "secret-verify"
	return cfg
}

func performVerify(t *testing.T, params url.Values) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, VerifyWebhookHandler(verifyConfig())(c))
	return rec
}

func TestVerifyWebhookHandshake(t *testing.T) {
	rec := performVerify(t, url.Values{
		"hub.mode":         {"subscribe"},
		"hub.verify_token": {"secret-verify"},
		"hub.challenge":    {"challenge-1234"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "challenge-1234", rec.Body.String())
}

func TestVerifyWebhookRejectsBadToken(t *testing.T) {
	rec := performVerify(t, url.Values{
		"hub.mode":         {"subscribe"},
		"hub.verify_token": {"wrong"},
		"hub.challenge":    {"challenge-1234"},
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "challenge-1234")
}

func TestVerifyWebhookRejectsWrongMode(t *testing.T) {
	rec := performVerify(t, url.Values{
		"hub.mode":         {"unsubscribe"},
		"hub.verify_token": {"secret-verify"},
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func performReceive(t *testing.T, submitter MessageSubmitter, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ReceiveWebhookHandler(submitter)(c))
	return rec
}

func webhookBody(t *testing.T, messages []models.WhatsAppMessage) string {
	t.Helper()

	payload := models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			ID: "entry-1",
			Changes: []models.WebhookChange{{
				Field: "messages",
				Value: models.WebhookChangeValue{Messages: messages},
			}},
		}},
	}

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(body)
}

func TestReceiveWebhookSubmitsMessages(t *testing.T) {
	submitter := &stubSubmitter{}

	rec := performReceive(t, submitter, webhookBody(t, []models.WhatsAppMessage{
		{
			From: "+254711000000",
			ID:   "wamid.1",
			Type: "text",
			Text: &models.WhatsAppText{Body: "I need a plumber"},
		},
		{
			From: "+254722000000",
			ID:   "wamid.2",
			Type: "text",
			Text: &models.WhatsAppText{Body: "hi"},
		},
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, submitter.submitted, 2)
	assert.Equal(t, "wamid.1", submitter.submitted[0].ID)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, float64(2), response["processed"])
}

func TestReceiveWebhookStatusOnlyPayload(t *testing.T) {
	submitter := &stubSubmitter{}

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {"statuses": [{"status": "delivered"}]}}]}]
	}`
	rec := performReceive(t, submitter, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, submitter.submitted)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["processed"])
}

func TestReceiveWebhookMalformedPayload(t *testing.T) {
	rec := performReceive(t, &stubSubmitter{}, `{"entry": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var response models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "invalid_request", response.Error)
}

func TestReceiveWebhookSubmissionFailure(t *testing.T) {
	submitter := &stubSubmitter{submitErr: errors.New("worker pool is not running")}

	rec := performReceive(t, submitter, webhookBody(t, []models.WhatsAppMessage{{
		From: "+254711000000",
		ID:   "wamid.1",
		Type: "text",
		Text: &models.WhatsAppText{Body: "hi"},
	}}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var response models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "message_processing_failed", response.Error)
}

func TestReceiveWebhookProcessingFailure(t *testing.T) {
	submitter := &stubSubmitter{resultErr: errors.New("delivery failed")}

	rec := performReceive(t, submitter, webhookBody(t, []models.WhatsAppMessage{{
		From: "+254711000000",
		ID:   "wamid.1",
		Type: "text",
		Text: &models.WhatsAppText{Body: "hi"},
	}}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
