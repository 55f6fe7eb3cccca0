package services

import (
	"context"
	"sync"
	"time"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	resp    domain.SearchResponse
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) (domain.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return domain.SearchResponse{}, f.err
	}
	resp := f.resp
	resp.Query = query
	return resp, nil
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakeCompleter replays errs in order, then answers with answer.
type fakeCompleter struct {
	mu       sync.Mutex
	answer   string
	errs     []error
	requests []domain.CompletionRequest
	block    chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return f.answer, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeModerator struct {
	mu     sync.Mutex
	result domain.ModerationResult
	inputs []string
}

func (f *fakeModerator) Moderate(_ context.Context, message string) domain.ModerationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, message)
	return f.result
}

func (f *fakeModerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func collectEvents(ch <-chan domain.PipelineEvent) func() []domain.PipelineEvent {
	var (
		mu     sync.Mutex
		events []domain.PipelineEvent
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		for e := range ch {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}
	}()
	return func() []domain.PipelineEvent {
		<-done
		mu.Lock()
		defer mu.Unlock()
		return events
	}
}

type fakeCatalog struct {
	root []domain.ThemeOption
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{root: []domain.ThemeOption{
		{
			ID:    "numeros",
			Label: "Números do iFood",
			Subtopics: []domain.ThemeOption{
				{ID: "numeros-faturamento", Label: "Faturamento", Query: "Qual o faturamento do iFood?"},
				{ID: "numeros-pedidos", Label: "Pedidos por mês", Query: "Quantos pedidos o iFood recebe por mês?"},
			},
		},
		{ID: "noticias", Label: "Notícias", Query: "Últimas notícias sobre o iFood"},
	}}
}

func (c *fakeCatalog) Root() []domain.ThemeOption { return c.root }

func (c *fakeCatalog) Path(id string) ([]domain.ThemeOption, bool) {
	var walk func(prefix, opts []domain.ThemeOption) ([]domain.ThemeOption, bool)
	walk = func(prefix, opts []domain.ThemeOption) ([]domain.ThemeOption, bool) {
		for _, o := range opts {
			path := append(append([]domain.ThemeOption(nil), prefix...), o)
			if o.ID == id {
				return path, true
			}
			if found, ok := walk(path, o.Subtopics); ok {
				return found, true
			}
		}
		return nil, false
	}
	return walk(nil, c.root)
}

type upsertCall struct {
	id       string
	messages []domain.Message
	history  []domain.HistoryEntry
}

type spyStore struct {
	mu      sync.Mutex
	upserts []upsertCall
	err     error
}

func (s *spyStore) Upsert(_ context.Context, id string, messages []domain.Message, history []domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, upsertCall{
		id:       id,
		messages: append([]domain.Message(nil), messages...),
		history:  append([]domain.HistoryEntry(nil), history...),
	})
	return s.err
}

func (s *spyStore) last() upsertCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.upserts) == 0 {
		return upsertCall{}
	}
	return s.upserts[len(s.upserts)-1]
}
