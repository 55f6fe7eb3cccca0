package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrTurnInFlight            = errors.New("a turn is already in flight")
	ErrThemeNotFound           = errors.New("theme not found")
	ErrCompletionNotConfigured = errors.New("completion api key is not configured")
	ErrEmptyCompletion         = errors.New("no choices returned by completion api")
	ErrRateLimitExhausted      = errors.New("rate limit retries exhausted")
	ErrSearchNotConfigured     = errors.New("search api key is not configured")
	ErrSearchUnauthorized      = errors.New("search api rejected the credentials")
	ErrSearchQuotaExceeded     = errors.New("search api quota exceeded")
)

// RateLimitError is returned by the completion client on HTTP 429.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %s", e.RetryAfter, e.Message)
}

// ProviderError is a non-2xx answer from an upstream API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Kind       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api error: %d - %s", e.Provider, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}
