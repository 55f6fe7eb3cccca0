package groq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultRetryAfter  = 20 * time.Second
	providerName       = "groq"
	unknownErrorReason = "Erro desconhecido"
)

var retryAfterRe = regexp.MustCompile(`try again in ([\d.]+)s`)

type client struct {
	api          *openai.Client
	configured   bool
	defaultModel string
}

type Option func(*openai.ClientConfig)

func WithBaseURL(baseURL string) Option {
	return func(cfg *openai.ClientConfig) {
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *openai.ClientConfig) {
		cfg.HTTPClient = hc
	}
}

// NewClient builds an OpenAI compatible client for Groq. An empty token yields an unconfigured client.
func NewClient(token, model string, opts ...Option) *client {
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = DefaultBaseURL
	for _, opt := range opts {
		opt(&cfg)
	}

	if model == "" {
		model = DefaultModel
	}

	return &client{
		api:          openai.NewClientWithConfig(cfg),
		configured:   token != "",
		defaultModel: model,
	}
}

func (c *client) IsConfigured() bool {
	return c.configured
}

func (c *client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if !c.configured {
		return "", domain.ErrCompletionNotConfigured
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", mapError(err)
	}

	slog.DebugContext(ctx, "Completion received",
		"model", model,
		"promptTokens", resp.Usage.PromptTokens,
		"completionTokens", resp.Usage.CompletionTokens,
		"took", time.Since(start),
	)

	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &domain.RateLimitError{RetryAfter: ParseRetryAfter(apiErr.Message), Message: apiErr.Message}
		}
		return &domain.ProviderError{Provider: providerName, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		message := unknownErrorReason
		if reqErr.Err != nil {
			message = reqErr.Err.Error()
		}
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &domain.RateLimitError{RetryAfter: ParseRetryAfter(message), Message: message}
		}
		return &domain.ProviderError{Provider: providerName, StatusCode: reqErr.HTTPStatusCode, Message: message}
	}

	return fmt.Errorf("calling completion api: %w", err)
}

// ParseRetryAfter extracts "try again in <float>s" rounded up to whole seconds, defaulting to 20s.
func ParseRetryAfter(message string) time.Duration {
	m := retryAfterRe.FindStringSubmatch(message)
	if m == nil {
		return DefaultRetryAfter
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil || seconds <= 0 {
		return DefaultRetryAfter
	}
	return time.Duration(math.Ceil(seconds)) * time.Second
}
