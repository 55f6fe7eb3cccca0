package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

type store interface {
	Load(ctx context.Context, owner string) ([]domain.Conversation, error)
	Create(ctx context.Context, owner string) (domain.Conversation, error)
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	Upsert(ctx context.Context, id string, messages []domain.Message, history []domain.HistoryEntry) error
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func stores() map[string]func(t *testing.T, clock *fixedClock) store {
	return map[string]func(t *testing.T, clock *fixedClock) store{
		"memory": func(_ *testing.T, clock *fixedClock) store {
			s := NewMemoryStore()
			s.now = clock.now
			return s
		},
		"file": func(t *testing.T, clock *fixedClock) store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "conversations.json"))
			require.NoError(t, err)
			s.now = clock.now
			return s
		},
		"sqlite": func(t *testing.T, clock *fixedClock) store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bot.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			s.now = clock.now
			return s
		},
	}
}

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2025, 1, 21, 12, 0, 0, 0, time.UTC)}
}

func sampleTranscript(at time.Time) ([]domain.Message, []domain.HistoryEntry) {
	messages := []domain.Message{
		{ID: "m1", Text: "Olá! Sou o assistente virtual do iFood Info Bot.", Sender: domain.SenderBot, Timestamp: at, Type: domain.MessageTypeText},
		{
			ID: "m2", Sender: domain.SenderBot, Timestamp: at, Type: domain.MessageTypeThemeMenu,
			ThemeData: &domain.ThemeData{Title: "Escolha um tema:", Themes: []domain.ThemeOption{{ID: "noticias", Label: "Notícias", Query: "Últimas notícias sobre o iFood"}}},
		},
		{ID: "m3", Text: "Quem fundou o iFood e em que ano?", Sender: domain.SenderUser, Timestamp: at, Type: domain.MessageTypeText},
		{ID: "m4", Text: "O iFood foi fundado em 2011 em Campinas, com origem no Disk Cook.", Sender: domain.SenderBot, Timestamp: at, Type: domain.MessageTypeText},
	}
	history := []domain.HistoryEntry{
		{Role: domain.RoleUser, Content: "Quem fundou o iFood e em que ano?"},
		{Role: domain.RoleAssistant, Content: "O iFood foi fundado em 2011 em Campinas, com origem no Disk Cook."},
	}
	return messages, history
}

func TestStoreRoundTrip(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newClock()
			s := open(t, clock)

			conv, err := s.Create(ctx, "telegram:1")
			require.NoError(t, err)
			assert.Equal(t, "Nova Conversa", conv.Title)
			assert.Equal(t, "Olá! Como posso ajudar?", conv.LastMessage)

			clock.advance(time.Minute)
			messages, history := sampleTranscript(clock.t)
			require.NoError(t, s.Upsert(ctx, conv.ID, messages, history))

			got, err := s.GetByID(ctx, conv.ID)
			require.NoError(t, err)
			assert.Equal(t, messages, got.Messages)
			assert.Equal(t, history, got.ConversationHistory)
			assert.Equal(t, "telegram:1", got.Owner)
			assert.Equal(t, "Quem fundou o iFood e em que a...", got.Title)
			assert.Equal(t, "O iFood foi fundado em 2011 em Campinas, com orige", got.LastMessage)
			assert.Equal(t, clock.t, got.Timestamp)
			assert.Equal(t, conv.CreatedAt, got.CreatedAt)
		})
	}
}

func TestStoreListsNewestFirstPerOwner(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newClock()
			s := open(t, clock)

			first, err := s.Create(ctx, "telegram:1")
			require.NoError(t, err)
			clock.advance(time.Second)
			_, err = s.Create(ctx, "telegram:2")
			require.NoError(t, err)
			clock.advance(time.Second)
			second, err := s.Create(ctx, "telegram:1")
			require.NoError(t, err)

			mine, err := s.Load(ctx, "telegram:1")
			require.NoError(t, err)
			require.Len(t, mine, 2)
			assert.Equal(t, second.ID, mine[0].ID)
			assert.Equal(t, first.ID, mine[1].ID)

			all, err := s.Load(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestStoreKeepsTimestampWhenCountUnchanged(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newClock()
			s := open(t, clock)

			conv, err := s.Create(ctx, "")
			require.NoError(t, err)
			messages, history := sampleTranscript(clock.t)
			clock.advance(time.Minute)
			require.NoError(t, s.Upsert(ctx, conv.ID, messages, history))
			stamped := clock.t

			clock.advance(time.Hour)
			require.NoError(t, s.Upsert(ctx, conv.ID, messages, history))

			got, err := s.GetByID(ctx, conv.ID)
			require.NoError(t, err)
			assert.Equal(t, stamped, got.Timestamp)
		})
	}
}

func TestStoreKeepsCustomTitle(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t, newClock())

			conv, err := s.Create(ctx, "")
			require.NoError(t, err)
			require.NoError(t, s.Rename(ctx, conv.ID, "Carreiras"))

			messages, history := sampleTranscript(time.Now().UTC())
			require.NoError(t, s.Upsert(ctx, conv.ID, messages, history))

			got, err := s.GetByID(ctx, conv.ID)
			require.NoError(t, err)
			assert.Equal(t, "Carreiras", got.Title)
		})
	}
}

func TestStoreUpsertInsertsMissingConversation(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t, newClock())

			messages, history := sampleTranscript(time.Now().UTC())
			require.NoError(t, s.Upsert(ctx, "restored-id", messages, history))

			got, err := s.GetByID(ctx, "restored-id")
			require.NoError(t, err)
			assert.Len(t, got.Messages, 4)
		})
	}
}

func TestStoreReportsMissingConversation(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t, newClock())

			_, err := s.GetByID(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.ErrorIs(t, s.Rename(ctx, "missing", "x"), domain.ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "missing"), domain.ErrNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t, newClock())

			conv, err := s.Create(ctx, "telegram:1")
			require.NoError(t, err)
			require.NoError(t, s.Delete(ctx, conv.ID))

			_, err = s.GetByID(ctx, conv.ID)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			convs, err := s.Load(ctx, "telegram:1")
			require.NoError(t, err)
			assert.Empty(t, convs)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "conversations.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	conv, err := s.Create(ctx, "telegram:9")
	require.NoError(t, err)
	messages, history := sampleTranscript(time.Now().UTC())
	require.NoError(t, s.Upsert(ctx, conv.ID, messages, history))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := reopened.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, messages, got.Messages)
	assert.Equal(t, "telegram:9", got.Owner)
}

func TestFileStoreBacksUpCorruptedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	convs, err := s.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, convs)
	assert.FileExists(t, path+".backup")
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	conv, err := s.Create(ctx, "http")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "http", got.Owner)
	assert.Empty(t, got.Messages)
}
