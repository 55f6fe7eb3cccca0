package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

type fakeWorker struct {
	name string
	err  error
}

func (f fakeWorker) Name() string { return f.name }

func (f fakeWorker) Start(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func TestGroupStopsOnFirstFailure(t *testing.T) {
	g := Group{fakeWorker{name: "idle"}, fakeWorker{name: "broken", err: errors.New("boom")}}

	err := g.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
}

func TestGroupReturnsNilOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, Group{fakeWorker{name: "idle"}}.Start(ctx))
}

type fakeClient struct {
	updates chan tgbotapi.Update

	mu        sync.Mutex
	responses []domain.Response
	acked     []string
	sent      chan struct{}
}

func (f *fakeClient) GetUpdates() tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeClient) SendResponse(_ context.Context, resp *domain.Response) {
	f.mu.Lock()
	f.responses = append(f.responses, *resp)
	f.mu.Unlock()
	f.sent <- struct{}{}
}

func (f *fakeClient) AcknowledgeCallback(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
}

type staticAuth bool

func (a staticAuth) IsAuthorized(int64) bool { return bool(a) }

type echoHandler struct {
	responseCh chan<- domain.Response
}

func (h echoHandler) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	h.responseCh <- domain.Response{ChatID: update.Message.Chat.ID, Text: "eco: " + update.Message.Text}
}

func startListener(t *testing.T, authorized bool) (*fakeClient, func()) {
	t.Helper()

	client := &fakeClient{updates: make(chan tgbotapi.Update), sent: make(chan struct{}, 10)}
	responseCh := make(chan domain.Response)
	listener, err := NewTelegramUpdateListener(client, staticAuth(authorized), echoHandler{responseCh: responseCh}, responseCh, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- listener.Start(ctx) }()

	var once sync.Once
	return client, func() {
		once.Do(func() {
			cancel()
			require.NoError(t, <-done)
		})
	}
}

func messageUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: 42},
		From: &tgbotapi.User{ID: 7},
	}}
}

func waitSent(t *testing.T, client *fakeClient) domain.Response {
	t.Helper()
	select {
	case <-client.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("no response sent")
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.responses[len(client.responses)-1]
}

func TestListenerDeliversHandlerResponses(t *testing.T) {
	client, stop := startListener(t, true)
	defer stop()

	client.updates <- messageUpdate("oi")

	resp := waitSent(t, client)
	assert.Equal(t, int64(42), resp.ChatID)
	assert.Equal(t, "eco: oi", resp.Text)
}

func TestListenerRejectsUnauthorizedUser(t *testing.T) {
	client, stop := startListener(t, false)
	defer stop()

	client.updates <- messageUpdate("oi")

	resp := waitSent(t, client)
	assert.Equal(t, int64(42), resp.ChatID)
	assert.Contains(t, resp.Text, "não está autorizado")
}

func TestListenerAcknowledgesCallbacks(t *testing.T) {
	client, stop := startListener(t, false)
	defer stop()

	client.updates <- tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
	}}
	waitSent(t, client)
	stop()

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, []string{"cb-1"}, client.acked)
}

func TestNewTelegramUpdateListenerRejectsEmptyPool(t *testing.T) {
	_, err := NewTelegramUpdateListener(&fakeClient{}, staticAuth(true), echoHandler{}, nil, 0)
	assert.Error(t, err)
}
