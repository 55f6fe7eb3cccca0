package domain

type ModerationCategory string

const (
	CategoryAllowed       ModerationCategory = "allowed"
	CategoryInappropriate ModerationCategory = "inappropriate"
	CategoryOffTopic      ModerationCategory = "off-topic"
)

type ModerationSource string

const (
	SourceLocal ModerationSource = "local"
	SourceLLM   ModerationSource = "llm"
)

type ModerationResult struct {
	Allowed    bool
	Category   ModerationCategory
	Reason     string
	Confidence float64
	Source     ModerationSource
}
