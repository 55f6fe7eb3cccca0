package repository

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

const (
	defaultTitle       = "Nova Conversa"
	defaultLastMessage = "Olá! Como posso ajudar?"
	emptyLastMessage   = "Nova conversa"

	lastMessageRunes = 50
	titleRunes       = 30
	minTitleRunes    = 3
)

func newConversation(id, owner string, now time.Time) domain.Conversation {
	return domain.Conversation{
		ID:                  id,
		Owner:               owner,
		Title:               defaultTitle,
		LastMessage:         defaultLastMessage,
		Timestamp:           now,
		CreatedAt:           now,
		Messages:            []domain.Message{},
		ConversationHistory: []domain.HistoryEntry{},
	}
}

// applyTranscript stores a new transcript and refreshes the derived listing fields.
func applyTranscript(conv *domain.Conversation, messages []domain.Message, history []domain.HistoryEntry, now time.Time) {
	if len(messages) != len(conv.Messages) {
		conv.Timestamp = now
	}

	conv.Messages = append([]domain.Message{}, messages...)
	conv.ConversationHistory = append([]domain.HistoryEntry{}, history...)
	conv.LastMessage = lastMessage(messages)

	if conv.Title == "" || strings.HasPrefix(conv.Title, defaultTitle) {
		conv.Title = generateTitle(messages)
	}
}

func lastMessage(messages []domain.Message) string {
	for _, sender := range []domain.Sender{domain.SenderBot, domain.SenderUser} {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Sender == sender && messages[i].Text != "" {
				return truncate(messages[i].Text, lastMessageRunes)
			}
		}
	}
	return emptyLastMessage
}

func generateTitle(messages []domain.Message) string {
	for _, m := range messages {
		if m.Sender != domain.SenderUser || utf8.RuneCountInString(m.Text) <= minTitleRunes {
			continue
		}
		if utf8.RuneCountInString(m.Text) > titleRunes {
			return truncate(m.Text, titleRunes) + "..."
		}
		return m.Text
	}
	return defaultTitle
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
