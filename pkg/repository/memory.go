package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

// memoryStore keeps conversations newest first. Nothing survives a restart.
type memoryStore struct {
	mu            sync.RWMutex
	conversations []domain.Conversation

	now   func() time.Time
	newID func() string
}

func NewMemoryStore() *memoryStore {
	return &memoryStore{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (m *memoryStore) Load(_ context.Context, owner string) ([]domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return filterByOwner(m.conversations, owner), nil
}

func (m *memoryStore) Create(_ context.Context, owner string) (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv := newConversation(m.newID(), owner, m.now())
	m.conversations = slices.Insert(m.conversations, 0, conv)
	return clone(conv), nil
}

func (m *memoryStore) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.index(id)
	if i < 0 {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return clone(m.conversations[i]), nil
}

func (m *memoryStore) Upsert(_ context.Context, id string, messages []domain.Message, history []domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conversations = upsert(m.conversations, id, messages, history, m.now())
	return nil
}

func (m *memoryStore) Rename(_ context.Context, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	m.conversations[i].Title = title
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	m.conversations = slices.Delete(m.conversations, i, i+1)
	return nil
}

func (m *memoryStore) index(id string) int {
	return slices.IndexFunc(m.conversations, func(c domain.Conversation) bool { return c.ID == id })
}

// upsert applies a transcript to the conversation with the given id, inserting it first when missing.
func upsert(convs []domain.Conversation, id string, messages []domain.Message, history []domain.HistoryEntry, now time.Time) []domain.Conversation {
	i := slices.IndexFunc(convs, func(c domain.Conversation) bool { return c.ID == id })
	if i < 0 {
		convs = slices.Insert(convs, 0, newConversation(id, "", now))
		i = 0
	}
	applyTranscript(&convs[i], messages, history, now)
	return convs
}

func filterByOwner(convs []domain.Conversation, owner string) []domain.Conversation {
	out := make([]domain.Conversation, 0, len(convs))
	for _, c := range convs {
		if owner == "" || c.Owner == owner {
			out = append(out, clone(c))
		}
	}
	return out
}

func clone(c domain.Conversation) domain.Conversation {
	c.Messages = slices.Clone(c.Messages)
	c.ConversationHistory = slices.Clone(c.ConversationHistory)
	return c
}
