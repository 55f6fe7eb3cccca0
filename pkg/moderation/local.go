package moderation

import "github.com/dskvich/ifood-info-bot/pkg/domain"

type Verdict struct {
	Decision Decision
	Result   *domain.ModerationResult
	Rule     string
}

// LocalFilter classifies messages with an ordered rule table and no I/O.
type LocalFilter struct {
	rules []Rule
}

func NewLocalFilter(rules []Rule) *LocalFilter {
	return &LocalFilter{rules: rules}
}

func (f *LocalFilter) Classify(message string) Verdict {
	text := Normalize(message)
	hasBrand := brandRe.MatchString(text)

	for _, rule := range f.rules {
		if !rule.matches(text, hasBrand) {
			continue
		}
		if rule.Decision == DecisionNeedsLLM {
			return Verdict{Decision: DecisionNeedsLLM, Rule: rule.Name}
		}
		return Verdict{
			Decision: rule.Decision,
			Rule:     rule.Name,
			Result: &domain.ModerationResult{
				Allowed:    rule.Decision == DecisionAllow,
				Category:   rule.Category,
				Reason:     rule.Reason,
				Confidence: rule.Confidence,
				Source:     domain.SourceLocal,
			},
		}
	}

	return Verdict{Decision: DecisionNeedsLLM, Rule: "default"}
}
