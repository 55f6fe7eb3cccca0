package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/logger"
)

const (
	classifierTemperature = 0.1
	classifierMaxTokens   = 150
	defaultConfidence     = 0.8
	failOpenConfidence    = 0.5
)

type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// RemoteClassifier asks the completion endpoint to classify ambiguous input.
type RemoteClassifier struct {
	completer Completer
	model     string
}

func NewRemoteClassifier(completer Completer, model string) *RemoteClassifier {
	return &RemoteClassifier{completer: completer, model: model}
}

func (c *RemoteClassifier) Classify(ctx context.Context, message string) domain.ModerationResult {
	content, err := c.completer.Complete(ctx, domain.CompletionRequest{
		Model: c.model,
		Messages: []domain.HistoryEntry{
			{Role: domain.RoleSystem, Content: classifierPrompt},
			{Role: domain.RoleUser, Content: fmt.Sprintf("Analise esta mensagem: %q", message)},
		},
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
	})
	if err != nil {
		slog.WarnContext(ctx, "Moderation classifier unavailable, allowing message", logger.Err(err))
		return failOpen()
	}

	v, err := parseVerdict(content)
	if err != nil {
		slog.WarnContext(ctx, "Moderation classifier returned unusable output, allowing message", logger.Err(err), "output", content)
		return failOpen()
	}

	confidence := defaultConfidence
	if v.Confidence != nil {
		confidence = min(max(*v.Confidence, 0), 1)
	}

	if *v.Allowed {
		return domain.ModerationResult{
			Allowed:    true,
			Category:   domain.CategoryAllowed,
			Confidence: confidence,
			Source:     domain.SourceLLM,
		}
	}

	// Any blocking category other than off-topic is treated as inappropriate.
	category := domain.CategoryInappropriate
	if domain.ModerationCategory(v.Category) == domain.CategoryOffTopic {
		category = domain.CategoryOffTopic
	}
	reason := v.Reason
	if reason == "" {
		reason = "Conteúdo não permitido"
	}

	return domain.ModerationResult{
		Allowed:    false,
		Category:   category,
		Reason:     reason,
		Confidence: confidence,
		Source:     domain.SourceLLM,
	}
}

func failOpen() domain.ModerationResult {
	return domain.ModerationResult{
		Allowed:    true,
		Category:   domain.CategoryAllowed,
		Confidence: failOpenConfidence,
		Source:     domain.SourceLocal,
	}
}
