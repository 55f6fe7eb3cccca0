package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/ifood-info-bot/pkg/api/handler"
	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/repository"
	"github.com/dskvich/ifood-info-bot/pkg/services"
	"github.com/dskvich/ifood-info-bot/pkg/themes"
)

type allowAll struct{}

func (allowAll) Moderate(context.Context, string) domain.ModerationResult {
	return domain.ModerationResult{Allowed: true, Category: domain.CategoryAllowed, Source: domain.SourceLocal}
}

type stubResponder struct {
	started chan struct{}
	release chan struct{}
}

func (s *stubResponder) Respond(ctx context.Context, _ string, _ []domain.HistoryEntry, _ chan<- domain.PipelineEvent) (string, error) {
	if s.started != nil {
		close(s.started)
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "O iFood faturou R$ 1 bilhão.", nil
}

type view struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Messages   []domain.Message     `json:"messages"`
	Breadcrumb []domain.ThemeOption `json:"breadcrumb"`
	Busy       bool                 `json:"busy"`
}

func newTestServer(t *testing.T, responder services.Responder) *httptest.Server {
	t.Helper()

	catalog, err := themes.Load("")
	require.NoError(t, err)

	registry := services.NewRegistry(repository.NewMemoryStore(), services.SessionDeps{
		Moderator:            allowAll{},
		Responder:            responder,
		Catalog:              catalog,
		CompletionConfigured: true,
	}, services.Pacing{})

	srv := httptest.NewServer(NewRouter(handler.NewConversations(registry), handler.NewThemes(catalog), []string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string, owner ...string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if len(owner) > 0 {
		req.Header.Set(handler.OwnerHeader, owner[0])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func create(t *testing.T, srv *httptest.Server) view {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/v1/conversations", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[view](t, resp)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubResponder{})

	resp := do(t, http.MethodGet, srv.URL+"/health", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListThemes(t *testing.T) {
	srv := newTestServer(t, &stubResponder{})

	resp := do(t, http.MethodGet, srv.URL+"/v1/themes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	root := decode[[]domain.ThemeOption](t, resp)
	assert.Len(t, root, 8)
}

func TestGetTheme(t *testing.T) {
	srv := newTestServer(t, &stubResponder{})

	resp := do(t, http.MethodGet, srv.URL+"/v1/themes/parceiros", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	theme := decode[domain.ThemeOption](t, resp)
	assert.Equal(t, "parceiros", theme.ID)
	assert.NotEmpty(t, theme.Subtopics)

	resp = do(t, http.MethodGet, srv.URL+"/v1/themes/nao-existe", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAndListConversations(t *testing.T) {
	srv := newTestServer(t, &stubResponder{})

	conv := create(t, srv)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "Nova Conversa", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, domain.MessageTypeThemeMenu, conv.Messages[1].Type)

	resp := do(t, http.MethodGet, srv.URL+"/v1/conversations", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]view](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, conv.ID, list[0].ID)

	resp = do(t, http.MethodGet, srv.URL+"/v1/conversations", "", "someone-else")
	assert.Empty(t, decode[[]view](t, resp))
}

func TestSendMessageRunsTurn(t *testing.T) {
	srv := newTestServer(t, &stubResponder{})
	conv := create(t, srv)

	resp := do(t, http.MethodPost, srv.URL+"/v1/conversations/"+conv.ID+"/messages", `{"text":"Qual o faturamento do iFood?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[view](t, resp)
	assert.False(t, got.Busy)
	require.Len(t, got.Messages, 5)
	assert.Equal(t, domain.SenderUser, got.Messages[2].Sender)
	assert.Equal(t, "O iFood faturou R$ 1 bilhão.", got.Messages[3].Text)
	assert.Equal(t, domain.MessageTypeThemeMenu, got.Messages[4].Type)
}

func TestSendMessageValidatesBody(t *testing.T) {
	srv := newTestServer(t, &stubResponder{})
	conv := create(t, srv)

	for _, body := range []string{`{"text":"   "}`, `not json`, `{"prompt":"x"}`} {
		resp := do(t, http.MethodPost, srv.URL+"/v1/conversations/"+conv.ID+"/messages", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestSendMessageConflictsWhileTurnRuns(t *testing.T) {
	responder := &stubResponder{started: make(chan struct{}), release: make(chan struct{})}
	srv := newTestServer(t, responder)
	conv := create(t, srv)
	url := srv.URL + "/v1/conversations/" + conv.ID + "/messages"

	done := make(chan int)
	go func() {
		req, _ := http.NewRequest(http.MethodPost, url, strings.NewReader(`{"text":"Quantos pedidos o iFood tem?"}`))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	<-responder.started
	resp := do(t, http.MethodPost, url, `{"text":"Outra pergunta sobre o iFood"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(responder.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestThemeNavigation(t *testing.T) {
	srv := newTestServer(t, &stubResponder{})
	conv := create(t, srv)
	base := srv.URL + "/v1/conversations/" + conv.ID

	resp := do(t, http.MethodPost, base+"/themes/nao-existe", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	root := conv.Messages[1].ThemeData.Themes
	require.NotEmpty(t, root[0].Subtopics)

	resp = do(t, http.MethodPost, base+"/themes/"+root[0].ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[view](t, resp)
	require.Len(t, got.Breadcrumb, 1)
	assert.Equal(t, root[0].ID, got.Breadcrumb[0].ID)

	resp = do(t, http.MethodPost, base+"/back", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[view](t, resp)
	assert.Empty(t, got.Breadcrumb)

	resp = do(t, http.MethodPost, base+"/clear", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[view](t, resp).Messages, 2)
}

func TestRenameAndDeleteConversation(t *testing.T) {
	srv := newTestServer(t, &stubResponder{})
	conv := create(t, srv)
	base := srv.URL + "/v1/conversations/" + conv.ID

	resp := do(t, http.MethodPatch, base, `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPatch, base, `{"title":"Faturamento"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Faturamento", decode[view](t, resp).Title)

	resp = do(t, http.MethodDelete, base, "", "intruder")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
