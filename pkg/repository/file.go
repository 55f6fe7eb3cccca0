package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/logger"
)

type fileDocument struct {
	Conversations []domain.Conversation `json:"conversations"`
}

// fileStore keeps every conversation in one JSON document rewritten on each change.
type fileStore struct {
	path string

	mu  sync.Mutex
	doc fileDocument

	now   func() time.Time
	newID func() string
}

func NewFileStore(path string) (*fileStore, error) {
	f := &fileStore{
		path:  path,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *fileStore) load() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.path, err)
	}

	if err := json.Unmarshal(data, &f.doc); err != nil {
		backup := f.path + ".backup"
		slog.Error("Corrupted conversation file, starting empty", "path", f.path, "backup", backup, logger.Err(err))
		if err := os.Rename(f.path, backup); err != nil {
			return fmt.Errorf("backing up %s: %w", f.path, err)
		}
		f.doc = fileDocument{}
	}
	return nil
}

func (f *fileStore) Load(_ context.Context, owner string) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return filterByOwner(f.doc.Conversations, owner), nil
}

func (f *fileStore) Create(_ context.Context, owner string) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv := newConversation(f.newID(), owner, f.now())
	f.doc.Conversations = slices.Insert(f.doc.Conversations, 0, conv)
	if err := f.saveLocked(); err != nil {
		return domain.Conversation{}, err
	}
	return clone(conv), nil
}

func (f *fileStore) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return clone(f.doc.Conversations[i]), nil
}

func (f *fileStore) Upsert(_ context.Context, id string, messages []domain.Message, history []domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.doc.Conversations = upsert(f.doc.Conversations, id, messages, history, f.now())
	return f.saveLocked()
}

func (f *fileStore) Rename(_ context.Context, id, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	f.doc.Conversations[i].Title = title
	return f.saveLocked()
}

func (f *fileStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	f.doc.Conversations = slices.Delete(f.doc.Conversations, i, i+1)
	return f.saveLocked()
}

func (f *fileStore) index(id string) int {
	return slices.IndexFunc(f.doc.Conversations, func(c domain.Conversation) bool { return c.ID == id })
}

// saveLocked writes to a temp file first so a crash never leaves a half written document.
func (f *fileStore) saveLocked() error {
	data, err := json.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding conversations: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}
