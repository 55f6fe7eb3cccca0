package domain

// ChatState is the per-chat front-end state.
type ChatState struct {
	ChatID                int64
	CurrentConversationID string
	DisclaimerAccepted    bool
}

const BrandName = "iFood"
