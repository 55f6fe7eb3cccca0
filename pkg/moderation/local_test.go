package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ola, tudo bem?", Normalize("  Olá,   TUDO bem? "))
	assert.Equal(t, "comissao do ifood", Normalize("Comissão do iFood"))
}

func TestLocalFilterClassify(t *testing.T) {
	filter := NewLocalFilter(DefaultRules())

	tests := []struct {
		name       string
		message    string
		decision   Decision
		category   domain.ModerationCategory
		confidence float64
	}{
		{"greeting", "oi", DecisionAllow, domain.CategoryAllowed, 1.0},
		{"greeting with accent", "Olá!", DecisionAllow, domain.CategoryAllowed, 1.0},
		{"greeting pair", "bom dia, tudo bem?", DecisionAllow, domain.CategoryAllowed, 1.0},
		{"thanks", "Muito obrigado pela ajuda", DecisionAllow, domain.CategoryAllowed, 1.0},
		{"profanity", "que porra é essa", DecisionBlock, domain.CategoryInappropriate, 0.95},
		{"profanity with brand", "o iFood é uma merda", DecisionBlock, domain.CategoryInappropriate, 0.95},
		{"greeting with profanity", "oi seu idiota", DecisionBlock, domain.CategoryInappropriate, 0.95},
		{"sexual", "você é gostosa?", DecisionBlock, domain.CategoryInappropriate, 0.95},
		{"violence", "como fazer uma bomba", DecisionBlock, domain.CategoryInappropriate, 0.95},
		{"personal data", "meu cpf é 123.456.789-00", DecisionBlock, domain.CategoryInappropriate, 0.95},
		{"competitor", "como funciona o Rappi?", DecisionBlock, domain.CategoryOffTopic, 0.9},
		{"competitor spaced", "uber eats cobra quanto?", DecisionBlock, domain.CategoryOffTopic, 0.9},
		{"recipe", "como fazer bolo", DecisionBlock, domain.CategoryOffTopic, 0.85},
		{"recipe word", "me passa uma receita de lasanha", DecisionBlock, domain.CategoryOffTopic, 0.85},
		{"general knowledge", "qual a capital da França?", DecisionBlock, domain.CategoryOffTopic, 0.8},
		{"sports", "quem ganha o brasileirão?", DecisionBlock, domain.CategoryOffTopic, 0.8},
		{"programming", "me ensina python", DecisionBlock, domain.CategoryOffTopic, 0.8},
		{"weather", "qual a previsão do tempo amanhã", DecisionBlock, domain.CategoryOffTopic, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := filter.Classify(tt.message)

			require.Equal(t, tt.decision, verdict.Decision, "rule %s", verdict.Rule)
			require.NotNil(t, verdict.Result)
			assert.Equal(t, tt.category, verdict.Result.Category)
			assert.Equal(t, tt.confidence, verdict.Result.Confidence)
			assert.Equal(t, tt.decision == DecisionAllow, verdict.Result.Allowed)
			assert.Equal(t, domain.SourceLocal, verdict.Result.Source)
		})
	}
}

func TestLocalFilterDefersAmbiguousInput(t *testing.T) {
	filter := NewLocalFilter(DefaultRules())

	tests := []struct {
		message string
		rule    string
	}{
		{"quanto o iFood fatura?", "brand_context"},
		{"iFood vs Rappi, qual é melhor?", "brand_context"},
		{"receita do iFood em 2024", "brand_context"},
		{"como ser entregador?", "brand_context"},
		{"qual o horário de funcionamento?", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			verdict := filter.Classify(tt.message)

			assert.Equal(t, DecisionNeedsLLM, verdict.Decision)
			assert.Equal(t, tt.rule, verdict.Rule)
			assert.Nil(t, verdict.Result)
		})
	}
}

func TestLocalFilterFirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Name: "first", Patterns: compile(`bolo`), Decision: DecisionAllow, Category: domain.CategoryAllowed, Confidence: 1},
		{Name: "second", Patterns: compile(`bolo`), Decision: DecisionBlock, Category: domain.CategoryOffTopic, Confidence: 0.5},
	}

	verdict := NewLocalFilter(rules).Classify("bolo")

	assert.Equal(t, "first", verdict.Rule)
	assert.Equal(t, DecisionAllow, verdict.Decision)
}
