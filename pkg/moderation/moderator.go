package moderation

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

const MaxMessageLength = 1000

type Classifier interface {
	Classify(ctx context.Context, message string) domain.ModerationResult
}

// Moderator runs the local filter first and defers to the remote classifier only when it is inconclusive.
type Moderator struct {
	local  *LocalFilter
	remote Classifier
}

func NewModerator(local *LocalFilter, remote Classifier) *Moderator {
	return &Moderator{local: local, remote: remote}
}

func (m *Moderator) Moderate(ctx context.Context, message string) domain.ModerationResult {
	message = strings.TrimSpace(message)

	if message == "" {
		return blocked(domain.CategoryInappropriate, "Mensagem vazia")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return blocked(domain.CategoryInappropriate, "Mensagem muito longa. Por favor, seja mais conciso.")
	}

	verdict := m.local.Classify(message)
	slog.DebugContext(ctx, "Local moderation verdict", "decision", verdict.Decision, "rule", verdict.Rule)

	if verdict.Decision != DecisionNeedsLLM {
		return *verdict.Result
	}

	result := m.remote.Classify(ctx, message)
	slog.DebugContext(ctx, "Remote moderation verdict", "allowed", result.Allowed, "category", result.Category, "source", result.Source)
	return result
}

func blocked(category domain.ModerationCategory, reason string) domain.ModerationResult {
	return domain.ModerationResult{
		Allowed:    false,
		Category:   category,
		Reason:     reason,
		Confidence: 1.0,
		Source:     domain.SourceLocal,
	}
}
