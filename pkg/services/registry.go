package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

type ConversationStore interface {
	TranscriptStore
	Load(ctx context.Context, owner string) ([]domain.Conversation, error)
	Create(ctx context.Context, owner string) (domain.Conversation, error)
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

// registry keeps one live session per conversation so every front-end shares it.
type registry struct {
	store  ConversationStore
	deps   SessionDeps
	pacing Pacing

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(store ConversationStore, deps SessionDeps, pacing Pacing) *registry {
	deps.Store = store
	return &registry{
		store:    store,
		deps:     deps,
		pacing:   pacing,
		sessions: make(map[string]*Session),
	}
}

// Session returns the live session of a stored conversation.
func (r *registry) Session(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, nil
	}

	conv, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}

	return r.openLocked(ctx, conv), nil
}

func (r *registry) Create(ctx context.Context, owner string) (*Session, error) {
	conv, err := r.store.Create(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slog.InfoContext(ctx, "Conversation created", "conversationID", conv.ID, "owner", owner)
	return r.openLocked(ctx, conv), nil
}

func (r *registry) List(ctx context.Context, owner string) ([]domain.Conversation, error) {
	convs, err := r.store.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("loading conversations: %w", err)
	}
	return convs, nil
}

func (r *registry) Get(ctx context.Context, id string) (domain.Conversation, error) {
	conv, err := r.store.GetByID(ctx, id)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return conv, nil
}

func (r *registry) Rename(ctx context.Context, id, title string) error {
	if err := r.store.Rename(ctx, id, title); err != nil {
		return fmt.Errorf("renaming conversation %s: %w", id, err)
	}
	return nil
}

// Delete stops the live session, if any, and removes the conversation.
func (r *registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.Cancel()
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Conversation deleted", "conversationID", id)
	return nil
}

func (r *registry) openLocked(ctx context.Context, conv domain.Conversation) *Session {
	s := NewSession(conv, r.deps, r.pacing)
	s.Seed(ctx)
	r.sessions[conv.ID] = s
	return s
}
