package domain

import "time"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type MessageType string

const (
	MessageTypeText      MessageType = "text"
	MessageTypeThemeMenu MessageType = "theme-menu"
)

// Message is one entry of the visible transcript. Once appended it is never modified.
type Message struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Sender    Sender          `json:"sender"`
	Timestamp time.Time       `json:"timestamp"`
	Type      MessageType     `json:"type"`
	Actions   []MessageAction `json:"actions,omitempty"`
	ThemeData *ThemeData      `json:"themeData,omitempty"`
}

type MessageAction struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ThemeData struct {
	Themes     []ThemeOption `json:"themes"`
	Breadcrumb []ThemeOption `json:"breadcrumb,omitempty"`
	Title      string        `json:"title,omitempty"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryEntry is the model-facing form of a turn.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Conversation struct {
	ID                  string         `json:"id"`
	Owner               string         `json:"owner,omitempty"`
	Title               string         `json:"title"`
	LastMessage         string         `json:"lastMessage"`
	Timestamp           time.Time      `json:"timestamp"`
	CreatedAt           time.Time      `json:"createdAt"`
	Messages            []Message      `json:"messages"`
	ConversationHistory []HistoryEntry `json:"conversationHistory"`
	Unread              bool           `json:"unread"`
}
