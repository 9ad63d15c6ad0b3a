package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"
)

type stubMatcher struct {
	response *models.MatchResponse
	err      error
	lastReq  *models.MatchRequest
}

func (m *stubMatcher) Match(ctx context.Context, req *models.MatchRequest) (*models.MatchResponse, error) {
	m.lastReq = req
	return m.response, m.err
}

func performMatch(t *testing.T, matcher Matcher, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := MatchHandler(&config.Config{}, matcher)
	require.NoError(t, handler(c))

	return rec
}

func TestMatchHandlerSuccess(t *testing.T) {
	rating := 4.8
	jobs := 150
	matcher := &stubMatcher{response: &models.MatchResponse{
		Success: true,
		Matches: []models.MatchResult{{
			Fundi: models.Fundi{
				ID:            "fundi-1",
				FullName:      "John Mwangi",
				Rating:        &rating,
				CompletedJobs: &jobs,
			},
			MatchScore:            99,
			MatchReasons:          []string{"Excellent ratings"},
			EstimatedResponseTime: "15-30 mins",
		}},
		TotalFound: 1,
	}}

	rec := performMatch(t, matcher, `{
		"service_type": "plumbing",
		"location": "Westlands",
		"urgency": "high",
		"budget_range": {"min": 200, "max": 800}
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, 1, response.TotalFound)
	require.Len(t, response.Matches, 1)
	assert.Equal(t, 99, response.Matches[0].MatchScore)

	require.NotNil(t, matcher.lastReq)
	assert.Equal(t, "plumbing", matcher.lastReq.ServiceType)
	assert.Equal(t, models.UrgencyHigh, matcher.lastReq.Urgency)
	require.NotNil(t, matcher.lastReq.BudgetRange)
	assert.Equal(t, 200.0, matcher.lastReq.BudgetRange.Min)
}

func TestMatchHandlerMalformedBody(t *testing.T) {
	matcher := &stubMatcher{}

	rec := performMatch(t, matcher, `{"service_type": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, matcher.lastReq, "pipeline must not run on a bind failure")

	var response models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "invalid_request", response.Error)
	assert.False(t, response.Success)
	assert.NotEmpty(t, response.RequestID)
}

func TestMatchHandlerStructValidation(t *testing.T) {
	matcher := &stubMatcher{}

	rec := performMatch(t, matcher, `{"location": "Westlands"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, matcher.lastReq)

	var response models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "validation_failed", response.Error)
}

func TestMatchHandlerSemanticValidationError(t *testing.T) {
	matcher := &stubMatcher{err: utils.NewValidationError("budget_range min must not exceed max")}

	rec := performMatch(t, matcher, `{
		"service_type": "plumbing",
		"urgency": "low",
		"budget_range": {"min": 500, "max": 100}
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var response models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "validation_failed", response.Error)
	assert.Contains(t, response.Message, "min must not exceed max")
}

func TestMatchHandlerStoreFailure(t *testing.T) {
	matcher := &stubMatcher{err: utils.NewStoreQueryError("connection refused")}

	rec := performMatch(t, matcher, `{"service_type": "plumbing", "urgency": "high"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var response models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "match_failed", response.Error)
	assert.Contains(t, response.Message, "Worker pool query failed")
}
