package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dskvich/ifood-info-bot/pkg/api/response"
	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/logger"
	"github.com/dskvich/ifood-info-bot/pkg/services"
)

// OwnerHeader identifies the web client. Requests without it share the default owner.
const (
	OwnerHeader  = "X-Owner-ID"
	defaultOwner = "web"
)

type SessionRegistry interface {
	Session(ctx context.Context, id string) (*services.Session, error)
	Create(ctx context.Context, owner string) (*services.Session, error)
	List(ctx context.Context, owner string) ([]domain.Conversation, error)
	Get(ctx context.Context, id string) (domain.Conversation, error)
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type conversations struct {
	registry SessionRegistry
	writer   response.JSONResponseWriter
}

func NewConversations(registry SessionRegistry) *conversations {
	return &conversations{
		registry: registry,
		writer:   response.JSONResponseWriter{},
	}
}

type conversationSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
}

type conversationView struct {
	conversationSummary
	services.SessionSnapshot
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type renameRequest struct {
	Title string `json:"title"`
}

func (c *conversations) List(w http.ResponseWriter, r *http.Request) {
	convs, err := c.registry.List(r.Context(), owner(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	out := make([]conversationSummary, 0, len(convs))
	for _, conv := range convs {
		out = append(out, summary(conv))
	}
	c.writer.WriteSuccessResponse(w, out)
}

func (c *conversations) Create(w http.ResponseWriter, r *http.Request) {
	s, err := c.registry.Create(r.Context(), owner(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeSession(w, r, http.StatusCreated, s)
}

func (c *conversations) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	c.writeSession(w, r, http.StatusOK, s)
}

func (c *conversations) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := response.DecodeRequest(r, &req); err != nil {
		c.writer.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.writer.WriteErrorResponse(w, http.StatusBadRequest, "Title must not be empty.")
		return
	}

	if _, ok := c.owned(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := c.registry.Rename(r.Context(), id, title); err != nil {
		c.writeError(w, r, err)
		return
	}

	conv, err := c.registry.Get(r.Context(), id)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writer.WriteSuccessResponse(w, summary(conv))
}

func (c *conversations) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.owned(w, r); !ok {
		return
	}
	if err := c.registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage runs a whole turn and answers with the resulting transcript.
func (c *conversations) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := response.DecodeRequest(r, &req); err != nil {
		c.writer.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.writer.WriteErrorResponse(w, http.StatusBadRequest, "Text must not be empty.")
		return
	}

	c.act(w, r, func(ctx context.Context, s *services.Session) error {
		return s.SendMessage(ctx, req.Text)
	})
}

func (c *conversations) SelectTheme(w http.ResponseWriter, r *http.Request) {
	themeID := chi.URLParam(r, "themeID")
	c.act(w, r, func(ctx context.Context, s *services.Session) error {
		return s.SelectTheme(ctx, themeID)
	})
}

func (c *conversations) Back(w http.ResponseWriter, r *http.Request) {
	c.act(w, r, func(ctx context.Context, s *services.Session) error {
		return s.BackToMainMenu(ctx)
	})
}

func (c *conversations) Clear(w http.ResponseWriter, r *http.Request) {
	c.act(w, r, func(ctx context.Context, s *services.Session) error {
		s.Clear(ctx)
		return nil
	})
}

// act runs fn on the session detached from the request, so a client hanging up does not abort the turn.
func (c *conversations) act(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, s *services.Session) error) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	if err := fn(context.WithoutCancel(r.Context()), s); err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeSession(w, r, http.StatusOK, s)
}

func (c *conversations) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	if _, ok := c.owned(w, r); !ok {
		return nil, false
	}
	s, err := c.registry.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

// owned loads the conversation in the path and hides it from other owners.
func (c *conversations) owned(w http.ResponseWriter, r *http.Request) (domain.Conversation, bool) {
	conv, err := c.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && conv.Owner != owner(r) {
		err = domain.ErrNotFound
	}
	if err != nil {
		c.writeError(w, r, err)
		return domain.Conversation{}, false
	}
	return conv, true
}

func (c *conversations) writeSession(w http.ResponseWriter, r *http.Request, status int, s *services.Session) {
	conv, err := c.registry.Get(r.Context(), s.ID())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writer.WriteResponse(w, status, conversationView{
		conversationSummary: summary(conv),
		SessionSnapshot:     s.Snapshot(),
	})
}

func (c *conversations) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.writer.WriteErrorResponse(w, http.StatusNotFound, "Conversation not found.")
	case errors.Is(err, domain.ErrThemeNotFound):
		c.writer.WriteErrorResponse(w, http.StatusNotFound, "Theme not found.")
	case errors.Is(err, domain.ErrTurnInFlight):
		c.writer.WriteErrorResponse(w, http.StatusConflict, "A message is still being processed.")
	default:
		slog.ErrorContext(r.Context(), "Handling request", "path", r.URL.Path, logger.Err(err))
		c.writer.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error.")
	}
}

func owner(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(OwnerHeader)); id != "" {
		return "web:" + id
	}
	return defaultOwner
}

func summary(conv domain.Conversation) conversationSummary {
	return conversationSummary{
		ID:          conv.ID,
		Title:       conv.Title,
		LastMessage: conv.LastMessage,
		Timestamp:   conv.Timestamp,
	}
}
