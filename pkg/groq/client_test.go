package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleteSendsRequestAndReturnsContent(t *testing.T) {
	var captured capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Olá!"}}]}`, &captured)

	c := NewClient("test-token", "", WithBaseURL(srv.URL+"/v1"))
	content, err := c.Complete(context.Background(), domain.CompletionRequest{
		Messages: []domain.HistoryEntry{
			{Role: domain.RoleSystem, Content: "sys"},
			{Role: domain.RoleUser, Content: "oi"},
		},
		Temperature: 0.5,
		MaxTokens:   800,
	})

	require.NoError(t, err)
	assert.Equal(t, "Olá!", content)
	assert.Equal(t, DefaultModel, captured.Model)
	assert.InDelta(t, 0.5, captured.Temperature, 0.0001)
	assert.Equal(t, 800, captured.MaxTokens)
	assert.False(t, captured.Stream)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "oi", captured.Messages[1].Content)
}

func TestCompleteMapsRateLimit(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached for model. Please try again in 2.5s.","type":"tokens","code":"rate_limit_exceeded"}}`, nil)

	_, err := NewClient("test-token", "", WithBaseURL(srv.URL+"/v1")).Complete(context.Background(), domain.CompletionRequest{})

	var rlErr *domain.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 3*time.Second, rlErr.RetryAfter)
}

func TestCompleteMapsProviderError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest, `{"error":{"message":"model not found","type":"invalid_request_error"}}`, nil)

	_, err := NewClient("test-token", "", WithBaseURL(srv.URL+"/v1")).Complete(context.Background(), domain.CompletionRequest{})

	var providerErr *domain.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusBadRequest, providerErr.StatusCode)
	assert.Equal(t, "model not found", providerErr.Message)
	assert.Equal(t, "groq api error: 400 - model not found", providerErr.Error())
}

func TestCompleteWithoutChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"choices":[]}`, nil)

	_, err := NewClient("test-token", "", WithBaseURL(srv.URL+"/v1")).Complete(context.Background(), domain.CompletionRequest{})

	assert.ErrorIs(t, err, domain.ErrEmptyCompletion)
}

func TestCompleteNotConfigured(t *testing.T) {
	c := NewClient("", "")

	_, err := c.Complete(context.Background(), domain.CompletionRequest{})

	assert.False(t, c.IsConfigured())
	assert.True(t, errors.Is(err, domain.ErrCompletionNotConfigured))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseRetryAfter("Please try again in 2.5s."))
	assert.Equal(t, 7*time.Second, ParseRetryAfter("try again in 7s"))
	assert.Equal(t, 1*time.Second, ParseRetryAfter("try again in 0.12s"))
	assert.Equal(t, DefaultRetryAfter, ParseRetryAfter("slow down"))
}
