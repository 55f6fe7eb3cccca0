package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/tavily"
)

type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) (domain.SearchResponse, error)
}

type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

type ResponderConfig struct {
	Model        string
	MaxTokens    int
	MaxResults   int
	MaxRetries   int
	MaxTotalWait time.Duration
	RetryPolicy  domain.RetryPolicy
	SystemPrompt string
}

func DefaultResponderConfig() ResponderConfig {
	return ResponderConfig{
		MaxTokens:    800,
		MaxResults:   tavily.DefaultMaxResults,
		MaxRetries:   3,
		MaxTotalWait: 2 * time.Minute,
		RetryPolicy:  domain.RetryCompletion,
		SystemPrompt: DefaultSystemPrompt(),
	}
}

// responder answers a question grounded on a mandatory web search.
type responder struct {
	searcher  Searcher
	completer Completer
	cfg       ResponderConfig
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewResponder(searcher Searcher, completer Completer, cfg ResponderConfig) *responder {
	return &responder{
		searcher:  searcher,
		completer: completer,
		cfg:       cfg,
		sleep:     sleepContext,
	}
}

func (r *responder) Respond(ctx context.Context, userMessage string, history []domain.HistoryEntry, events chan<- domain.PipelineEvent) (string, error) {
	var (
		searchContext string
		searched      bool
		waited        time.Duration
	)

	for attempt := 0; ; attempt++ {
		if !searched || r.cfg.RetryPolicy == domain.RetryFullTurn {
			var err error
			if searchContext, err = r.search(ctx, userMessage, events); err != nil {
				return "", err
			}
			searched = true
		}

		answer, err := r.complete(ctx, userMessage, searchContext, history)
		if err == nil {
			return answer, nil
		}

		var rlErr *domain.RateLimitError
		if !errors.As(err, &rlErr) {
			return "", fmt.Errorf("creating completion: %w", err)
		}

		seconds := int(math.Ceil(rlErr.RetryAfter.Seconds()))
		wait := time.Duration(seconds) * time.Second
		if attempt >= r.cfg.MaxRetries || waited+wait > r.cfg.MaxTotalWait {
			slog.WarnContext(ctx, "Giving up on rate limited completion", "attempts", attempt+1, "waited", waited)
			return "", fmt.Errorf("%w after %d attempts: %w", domain.ErrRateLimitExhausted, attempt+1, err)
		}

		slog.InfoContext(ctx, "Completion rate limited, waiting", "seconds", seconds, "attempt", attempt+1)
		if err := r.countdown(ctx, seconds, attempt+1, events); err != nil {
			return "", err
		}
		waited += wait
	}
}

func (r *responder) search(ctx context.Context, userMessage string, events chan<- domain.PipelineEvent) (string, error) {
	query := tavily.GenerateSearchQuery(domain.BrandName, userMessage)

	resp, err := r.searcher.Search(ctx, query, r.cfg.MaxResults)
	if err != nil {
		return "", fmt.Errorf("searching the web: %w", err)
	}

	if err := emit(ctx, events, domain.PipelineEvent{Kind: domain.EventSearchCompleted, ResultsCount: len(resp.Results)}); err != nil {
		return "", err
	}

	return tavily.FormatResults(resp), nil
}

func (r *responder) complete(ctx context.Context, userMessage, searchContext string, history []domain.HistoryEntry) (string, error) {
	messages := make([]domain.HistoryEntry, 0, len(history)+2)
	messages = append(messages, domain.HistoryEntry{Role: domain.RoleSystem, Content: r.cfg.SystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, domain.HistoryEntry{Role: domain.RoleUser, Content: groundedQuestion(searchContext, userMessage)})

	return r.completer.Complete(ctx, domain.CompletionRequest{
		Model:       r.cfg.Model,
		Messages:    messages,
		Temperature: temperatureFor(userMessage),
		MaxTokens:   r.cfg.MaxTokens,
	})
}

// countdown reports the full wait, then the remaining seconds after each elapsed second.
func (r *responder) countdown(ctx context.Context, seconds, attempt int, events chan<- domain.PipelineEvent) error {
	if err := emit(ctx, events, domain.PipelineEvent{Kind: domain.EventRetrying, WaitSeconds: seconds, Attempt: attempt}); err != nil {
		return err
	}
	for remaining := seconds; remaining > 0; {
		if err := r.sleep(ctx, time.Second); err != nil {
			return err
		}
		remaining--
		if remaining > 0 {
			if err := emit(ctx, events, domain.PipelineEvent{Kind: domain.EventRetrying, WaitSeconds: remaining, Attempt: attempt}); err != nil {
				return err
			}
		}
	}
	return nil
}

func emit(ctx context.Context, events chan<- domain.PipelineEvent, event domain.PipelineEvent) error {
	if events == nil {
		return nil
	}
	select {
	case events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
