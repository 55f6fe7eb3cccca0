package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/logger"
)

type Moderator interface {
	Moderate(ctx context.Context, message string) domain.ModerationResult
}

type Responder interface {
	Respond(ctx context.Context, userMessage string, history []domain.HistoryEntry, events chan<- domain.PipelineEvent) (string, error)
}

type TranscriptStore interface {
	Upsert(ctx context.Context, id string, messages []domain.Message, history []domain.HistoryEntry) error
}

type ThemeCatalog interface {
	Root() []domain.ThemeOption
	Path(id string) ([]domain.ThemeOption, bool)
}

type SessionDeps struct {
	Moderator            Moderator
	Responder            Responder
	Store                TranscriptStore
	Catalog              ThemeCatalog
	CompletionConfigured bool
}

// Pacing holds the cosmetic delays of a turn. Zero disables a wait.
type Pacing struct {
	FoundToAnalyzing time.Duration `env:"PACING_FOUND_TO_ANALYZING" envDefault:"800ms"`
	BeforeAnswer     time.Duration `env:"PACING_BEFORE_ANSWER" envDefault:"500ms"`
	BeforeMenu       time.Duration `env:"PACING_BEFORE_MENU" envDefault:"500ms"`
	Navigation       time.Duration `env:"PACING_NAVIGATION" envDefault:"300ms"`
	ElapsedTick      time.Duration `env:"PACING_ELAPSED_TICK" envDefault:"1s"`
}

func DefaultPacing() Pacing {
	return Pacing{
		FoundToAnalyzing: 800 * time.Millisecond,
		BeforeAnswer:     500 * time.Millisecond,
		BeforeMenu:       500 * time.Millisecond,
		Navigation:       300 * time.Millisecond,
		ElapsedTick:      time.Second,
	}
}

type SessionSnapshot struct {
	ConversationID string                 `json:"conversationId"`
	Messages       []domain.Message       `json:"messages"`
	Breadcrumb     []domain.ThemeOption   `json:"breadcrumb,omitempty"`
	Progress       *domain.SearchProgress `json:"progress,omitempty"`
	Busy           bool                   `json:"busy"`
}

// Session drives one conversation: transcript, model history, theme navigation and the progress of the running turn.
type Session struct {
	id     string
	deps   SessionDeps
	pacing Pacing

	mu          sync.Mutex
	messages    []domain.Message
	history     []domain.HistoryEntry
	breadcrumb  []domain.ThemeOption
	progress    *domain.SearchProgress
	busy        bool
	generation  uint64
	cancelTurn  context.CancelFunc
	subscribers map[int64]chan<- domain.Response

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	newID func() string
}

func NewSession(conv domain.Conversation, deps SessionDeps, pacing Pacing) *Session {
	return &Session{
		id:          conv.ID,
		deps:        deps,
		pacing:      pacing,
		messages:    append([]domain.Message(nil), conv.Messages...),
		history:     append([]domain.HistoryEntry(nil), conv.ConversationHistory...),
		subscribers: make(map[int64]chan<- domain.Response),
		sleep:       sleepContext,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func (s *Session) ID() string { return s.id }

// Subscribe routes every future response of the session to ch, tagged with chatID.
func (s *Session) Subscribe(chatID int64, ch chan<- domain.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers[chatID] = ch
}

func (s *Session) Unsubscribe(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subscribers, chatID)
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		ConversationID: s.id,
		Messages:       append([]domain.Message(nil), s.messages...),
		Breadcrumb:     append([]domain.ThemeOption(nil), s.breadcrumb...),
		Busy:           s.busy,
	}
	if s.progress != nil {
		p := *s.progress
		snap.Progress = &p
	}
	return snap
}

// Seed resets an empty session to the welcome transcript.
func (s *Session) Seed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) > 0 {
		return
	}
	s.messages = s.seedMessages()
	s.persistLocked(ctx)
}

func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.runTurn(ctx, text, false)
}

func (s *Session) SelectTheme(ctx context.Context, themeID string) error {
	path, ok := s.deps.Catalog.Path(themeID)
	if !ok {
		return fmt.Errorf("selecting theme %q: %w", themeID, domain.ErrThemeNotFound)
	}
	theme := path[len(path)-1]

	if theme.IsLeaf() {
		return s.runTurn(ctx, theme.Query, true)
	}

	gen, err := s.beginNavigation(path)
	if err != nil {
		return err
	}
	defer s.endNavigation(gen)

	s.append(ctx, gen, s.userMessage(theme.Label))

	if err := s.sleep(ctx, s.pacing.Navigation); err != nil {
		return err
	}

	menu := s.menuMessage(fmt.Sprintf(subtopicMenuFormat, theme.Label), theme.Subtopics)
	menu.ThemeData.Breadcrumb = append([]domain.ThemeOption(nil), path...)
	s.append(ctx, gen, menu)
	return nil
}

func (s *Session) BackToMainMenu(ctx context.Context) error {
	gen, err := s.beginNavigation(nil)
	if err != nil {
		return err
	}
	defer s.endNavigation(gen)

	s.append(ctx, gen, s.userMessage(backEchoText))

	if err := s.sleep(ctx, s.pacing.Navigation); err != nil {
		return err
	}

	s.append(ctx, gen, s.botMessage(backReplyText), s.menuMessage(mainMenuTitle, s.deps.Catalog.Root()))
	return nil
}

// Clear resets the transcript to the welcome messages and drops any running turn.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	s.invalidateLocked()
	s.messages = s.seedMessages()
	s.history = nil
	s.persistLocked(ctx)
	seed := append([]domain.Message(nil), s.messages...)
	s.mu.Unlock()

	s.publish(ctx, domain.Response{ProgressCleared: true})
	for i := range seed {
		s.publish(ctx, domain.Response{Message: &seed[i]})
	}
}

// Cancel drops the running turn, if any, without touching the transcript.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
}

// Replay sends the last limit messages of the transcript to a single chat.
func (s *Session) Replay(ctx context.Context, chatID int64, out chan<- domain.Response, limit int) {
	s.mu.Lock()
	msgs := s.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	msgs = append([]domain.Message(nil), msgs...)
	s.mu.Unlock()

	for i := range msgs {
		send(ctx, out, domain.Response{ChatID: chatID, Message: &msgs[i]})
	}
}

// beginNavigation marks the session busy for a menu step and replaces the breadcrumb.
func (s *Session) beginNavigation(breadcrumb []domain.ThemeOption) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return 0, domain.ErrTurnInFlight
	}
	s.busy = true
	s.breadcrumb = breadcrumb
	return s.generation, nil
}

func (s *Session) endNavigation(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.generation {
		s.busy = false
	}
}

type turnResult struct {
	answer string
	err    error
}

// runTurn answers text. Theme queries skip moderation and reset the navigation.
func (s *Session) runTurn(ctx context.Context, text string, fromTheme bool) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return domain.ErrTurnInFlight
	}
	if fromTheme {
		s.breadcrumb = nil
	}
	s.busy = true
	s.generation++
	gen := s.generation
	turnCtx, cancel := context.WithCancel(logger.ContextWithConversationID(ctx, s.id))
	s.cancelTurn = cancel
	s.mu.Unlock()

	defer cancel()
	defer s.finishTurn(turnCtx, gen)

	if !s.deps.CompletionConfigured {
		s.append(turnCtx, gen, s.botMessage(completionNotConfiguredText))
		return nil
	}

	if !fromTheme {
		result := s.deps.Moderator.Moderate(turnCtx, text)
		if !result.Allowed {
			slog.InfoContext(turnCtx, "Message blocked by moderation", "category", result.Category, "source", result.Source)
			s.append(turnCtx, gen, s.botMessage(refusalText(result)))
			return nil
		}
	}

	history, ok := s.beginAnswer(turnCtx, gen, text)
	if !ok {
		return nil
	}

	answer, err := s.await(turnCtx, gen, text, history)
	if err != nil {
		if turnCtx.Err() != nil {
			return nil
		}
		slog.ErrorContext(turnCtx, "Turn failed", logger.Err(err))
		s.append(turnCtx, gen, s.botMessage(failureText(err)))
		return nil
	}

	s.setProgress(turnCtx, gen, domain.SearchProgress{Stage: domain.StageResponding})
	if err := s.sleep(turnCtx, s.pacing.BeforeAnswer); err != nil {
		return nil
	}

	if !s.appendAnswer(turnCtx, gen, text, answer) {
		return nil
	}

	if err := s.sleep(turnCtx, s.pacing.BeforeMenu); err != nil {
		return nil
	}
	s.append(turnCtx, gen, s.menuMessage(followUpMenuTitle, s.deps.Catalog.Root()))
	return nil
}

// beginAnswer appends the user message and returns the history the answer is built on.
func (s *Session) beginAnswer(ctx context.Context, gen uint64, text string) ([]domain.HistoryEntry, bool) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil, false
	}
	msg := s.userMessage(text)
	s.messages = append(s.messages, msg)
	s.persistLocked(ctx)
	history := append([]domain.HistoryEntry(nil), s.history...)
	s.mu.Unlock()

	s.publish(ctx, domain.Response{Message: &msg})
	s.publish(ctx, domain.Response{Typing: true})
	return history, true
}

// await runs the responder and turns its events into progress updates.
func (s *Session) await(ctx context.Context, gen uint64, text string, history []domain.HistoryEntry) (string, error) {
	events := make(chan domain.PipelineEvent)
	resultCh := make(chan turnResult, 1)

	go func() {
		answer, err := s.deps.Responder.Respond(ctx, text, history, events)
		resultCh <- turnResult{answer: answer, err: err}
	}()

	start := s.now()
	elapsed := func() int { return int(s.now().Sub(start) / time.Second) }

	progress := domain.SearchProgress{Stage: domain.StageSearching}
	s.setProgress(ctx, gen, progress)

	var (
		ticker   *time.Ticker
		tickC    <-chan time.Time
		analyze  *time.Timer
		analyzeC <-chan time.Time
	)
	if s.pacing.ElapsedTick > 0 {
		ticker = time.NewTicker(s.pacing.ElapsedTick)
		tickC = ticker.C
	}
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	stopAnalyze := func() {
		if analyze != nil {
			analyze.Stop()
			analyze, analyzeC = nil, nil
		}
	}
	defer stopTicker()
	defer stopAnalyze()

	for {
		select {
		case <-tickC:
			progress.ElapsedSeconds = elapsed()
			s.setProgress(ctx, gen, progress)
		case event := <-events:
			stopTicker()
			switch event.Kind {
			case domain.EventSearchCompleted:
				progress = domain.SearchProgress{Stage: domain.StageFound, ResultsCount: event.ResultsCount, ElapsedSeconds: elapsed()}
				s.setProgress(ctx, gen, progress)
				if s.pacing.FoundToAnalyzing > 0 {
					analyze = time.NewTimer(s.pacing.FoundToAnalyzing)
					analyzeC = analyze.C
				} else {
					progress.Stage = domain.StageAnalyzing
					s.setProgress(ctx, gen, progress)
				}
			case domain.EventRetrying:
				stopAnalyze()
				progress = domain.SearchProgress{Stage: domain.StageWaiting, WaitSeconds: event.WaitSeconds, ElapsedSeconds: elapsed()}
				s.setProgress(ctx, gen, progress)
			}
		case <-analyzeC:
			analyze, analyzeC = nil, nil
			progress.Stage = domain.StageAnalyzing
			progress.ElapsedSeconds = elapsed()
			s.setProgress(ctx, gen, progress)
		case res := <-resultCh:
			return res.answer, res.err
		}
	}
}

func (s *Session) appendAnswer(ctx context.Context, gen uint64, question, answer string) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	msg := s.botMessage(answer)
	s.messages = append(s.messages, msg)
	s.history = append(s.history,
		domain.HistoryEntry{Role: domain.RoleUser, Content: question},
		domain.HistoryEntry{Role: domain.RoleAssistant, Content: answer},
	)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, domain.Response{Message: &msg})
	return true
}

func (s *Session) finishTurn(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	hadProgress := s.progress != nil
	s.progress = nil
	s.busy = false
	s.cancelTurn = nil
	s.mu.Unlock()

	if hadProgress {
		s.publish(ctx, domain.Response{ProgressCleared: true})
	}
}

func (s *Session) setProgress(ctx context.Context, gen uint64, p domain.SearchProgress) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.progress = &p
	s.mu.Unlock()

	s.publish(ctx, domain.Response{Progress: &p})
}

// append adds messages to the transcript unless the turn that produced them went stale.
func (s *Session) append(ctx context.Context, gen uint64, msgs ...domain.Message) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, msgs...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	for i := range msgs {
		s.publish(ctx, domain.Response{Message: &msgs[i]})
	}
}

func (s *Session) invalidateLocked() {
	s.generation++
	if s.cancelTurn != nil {
		s.cancelTurn()
		s.cancelTurn = nil
	}
	s.busy = false
	s.progress = nil
	s.breadcrumb = nil
}

func (s *Session) persistLocked(ctx context.Context) {
	if s.deps.Store == nil {
		return
	}
	if err := s.deps.Store.Upsert(context.WithoutCancel(ctx), s.id, s.messages, s.history); err != nil {
		slog.ErrorContext(ctx, "Failed to persist conversation", "conversationID", s.id, logger.Err(err))
	}
}

func (s *Session) publish(ctx context.Context, resp domain.Response) {
	s.mu.Lock()
	subscribers := lo.Entries(s.subscribers)
	s.mu.Unlock()

	for _, sub := range subscribers {
		r := resp
		r.ChatID = sub.Key
		send(ctx, sub.Value, r)
	}
}

func send(ctx context.Context, out chan<- domain.Response, resp domain.Response) {
	if out == nil || resp.ChatID == 0 {
		return
	}
	select {
	case out <- resp:
	case <-ctx.Done():
	}
}

func (s *Session) seedMessages() []domain.Message {
	return []domain.Message{
		s.botMessage(welcomeText),
		s.menuMessage(mainMenuTitle, s.deps.Catalog.Root()),
	}
}

func (s *Session) userMessage(text string) domain.Message {
	return domain.Message{ID: s.newID(), Text: text, Sender: domain.SenderUser, Timestamp: s.now(), Type: domain.MessageTypeText}
}

func (s *Session) botMessage(text string) domain.Message {
	return domain.Message{ID: s.newID(), Text: text, Sender: domain.SenderBot, Timestamp: s.now(), Type: domain.MessageTypeText}
}

func (s *Session) menuMessage(title string, themes []domain.ThemeOption) domain.Message {
	return domain.Message{
		ID:        s.newID(),
		Sender:    domain.SenderBot,
		Timestamp: s.now(),
		Type:      domain.MessageTypeThemeMenu,
		ThemeData: &domain.ThemeData{Themes: themes, Title: title},
	}
}

func refusalText(result domain.ModerationResult) string {
	switch result.Category {
	case domain.CategoryInappropriate:
		reason, _ := lo.Coalesce(result.Reason, inappropriateFallbackReason)
		return fmt.Sprintf(inappropriateRefusalFormat, reason)
	case domain.CategoryOffTopic:
		reason, _ := lo.Coalesce(result.Reason, offTopicFallbackReason)
		return fmt.Sprintf(offTopicRefusalFormat, reason)
	default:
		reason, _ := lo.Coalesce(result.Reason, blockedFallbackReason)
		return reason
	}
}
