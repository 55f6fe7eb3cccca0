package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/logger"
	"github.com/dskvich/ifood-info-bot/pkg/render"
)

const (
	startReplayLimit  = 2
	switchReplayLimit = 6
)

const disclaimerText = `<b>Aviso</b>

<b>Declaração de Independência</b>
Este projeto é uma iniciativa <b>independente e não oficial</b>, desenvolvida exclusivamente para fins educacionais e de estudo.

<b>Ausência de Vínculo</b>
• Não possui qualquer vínculo ou parceria com o iFood ou suas empresas afiliadas
• Não representa, simula ou substitui nenhum produto, serviço ou canal oficial do iFood
• Todas as informações são baseadas em fontes públicas e podem estar desatualizadas

<b>Limitação de Responsabilidade</b>
O desenvolvedor não se responsabiliza por eventuais imprecisões, erros ou uso inadequado das informações fornecidas. Para informações oficiais e atualizadas, consulte sempre os canais oficiais do iFood.

<i>Ao prosseguir, você reconhece ter lido e compreendido este aviso e concorda em utilizar este projeto sob sua própria responsabilidade.</i>`

const helpText = `<b>iFood Info Bot</b>
Faça perguntas sobre o iFood ou navegue pelos temas.

/menu - mostrar os temas
/novo - iniciar uma nova conversa
/conversas - listar e retomar conversas
/renomear &lt;título&gt; - renomear a conversa atual
/limpar - limpar a conversa atual
/apagar - apagar a conversa atual
/ajuda - mostrar esta ajuda`

type SessionRegistry interface {
	Session(ctx context.Context, id string) (*Session, error)
	Create(ctx context.Context, owner string) (*Session, error)
	List(ctx context.Context, owner string) ([]domain.Conversation, error)
	Get(ctx context.Context, id string) (domain.Conversation, error)
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type ChatStateStore interface {
	Get(chatID int64) (domain.ChatState, bool)
	Save(state domain.ChatState)
}

// conversationService tracks which conversation each Telegram chat is attached to.
type conversationService struct {
	registry   SessionRegistry
	states     ChatStateStore
	responseCh chan<- domain.Response
}

func NewConversationService(registry SessionRegistry, states ChatStateStore, responseCh chan<- domain.Response) *conversationService {
	return &conversationService{
		registry:   registry,
		states:     states,
		responseCh: responseCh,
	}
}

func TelegramOwner(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

func (c *conversationService) DisclaimerAccepted(ctx context.Context, chatID int64) bool {
	state, ok := c.states.Get(chatID)
	if ok {
		return state.DisclaimerAccepted
	}

	// Chats that already own conversations accepted it before a restart.
	convs, err := c.registry.List(ctx, TelegramOwner(chatID))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list conversations", "chatID", chatID, logger.Err(err))
		return false
	}
	if len(convs) == 0 {
		return false
	}
	c.states.Save(domain.ChatState{ChatID: chatID, DisclaimerAccepted: true})
	return true
}

func (c *conversationService) ShowDisclaimer(ctx context.Context, chatID int64) {
	c.reply(ctx, domain.Response{
		ChatID: chatID,
		Text:   disclaimerText,
		Keyboard: &domain.Keyboard{
			Buttons:       []domain.Button{{Label: "Li e entendi", Data: domain.DisclaimerCallback}},
			ButtonsPerRow: 1,
		},
	})
}

func (c *conversationService) AcceptDisclaimer(ctx context.Context, chatID int64) error {
	state := c.state(chatID)
	state.DisclaimerAccepted = true
	c.states.Save(state)
	return c.Start(ctx, chatID)
}

// Start greets the chat with the tail of its current conversation, or the disclaimer on first contact.
func (c *conversationService) Start(ctx context.Context, chatID int64) error {
	if !c.DisclaimerAccepted(ctx, chatID) {
		c.ShowDisclaimer(ctx, chatID)
		return nil
	}

	s, err := c.Current(ctx, chatID)
	if err != nil {
		return err
	}
	s.Replay(ctx, chatID, c.responseCh, startReplayLimit)
	return nil
}

// Current returns the session the chat is attached to, creating one when the chat has none.
func (c *conversationService) Current(ctx context.Context, chatID int64) (*Session, error) {
	state := c.state(chatID)

	if state.CurrentConversationID != "" {
		s, err := c.registry.Session(ctx, state.CurrentConversationID)
		switch {
		case err == nil:
			s.Subscribe(chatID, c.responseCh)
			return s, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	convs, err := c.registry.List(ctx, TelegramOwner(chatID))
	if err != nil {
		return nil, err
	}

	var s *Session
	if len(convs) > 0 {
		s, err = c.registry.Session(ctx, convs[0].ID)
	} else {
		s, err = c.registry.Create(ctx, TelegramOwner(chatID))
	}
	if err != nil {
		return nil, err
	}

	c.attach(chatID, s)
	return s, nil
}

func (c *conversationService) New(ctx context.Context, chatID int64) error {
	c.detach(ctx, chatID)

	s, err := c.registry.Create(ctx, TelegramOwner(chatID))
	if err != nil {
		return err
	}

	c.attach(chatID, s)
	s.Replay(ctx, chatID, c.responseCh, startReplayLimit)
	return nil
}

func (c *conversationService) List(ctx context.Context, chatID int64) error {
	current, err := c.Current(ctx, chatID)
	if err != nil {
		return err
	}

	convs, err := c.registry.List(ctx, TelegramOwner(chatID))
	if err != nil {
		return err
	}

	c.reply(ctx, domain.Response{
		ChatID: chatID,
		Text:   "<b>Suas conversas:</b>",
		Keyboard: &domain.Keyboard{
			Buttons: lo.Map(convs, func(conv domain.Conversation, _ int) domain.Button {
				label := lo.Ternary(conv.ID == current.ID(), "✓ "+conv.Title, conv.Title)
				return domain.Button{Label: label, Data: domain.ConversationCallbackPrefix + conv.ID}
			}),
			ButtonsPerRow: 1,
		},
	})
	return nil
}

// Switch attaches the chat to another of its conversations. The turn running in the previous one is dropped.
func (c *conversationService) Switch(ctx context.Context, chatID int64, id string) error {
	conv, err := c.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	if conv.Owner != TelegramOwner(chatID) {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	if c.state(chatID).CurrentConversationID != id {
		c.detach(ctx, chatID)
	}

	s, err := c.registry.Session(ctx, id)
	if err != nil {
		return err
	}
	c.attach(chatID, s)

	c.reply(ctx, domain.Response{ChatID: chatID, Text: fmt.Sprintf("Conversa <b>%s</b> retomada.", render.UserMessage(conv.Title))})
	s.Replay(ctx, chatID, c.responseCh, switchReplayLimit)
	return nil
}

func (c *conversationService) Rename(ctx context.Context, chatID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		c.reply(ctx, domain.Response{ChatID: chatID, Text: "Uso: /renomear &lt;título&gt;"})
		return nil
	}

	s, err := c.Current(ctx, chatID)
	if err != nil {
		return err
	}
	if err := c.registry.Rename(ctx, s.ID(), title); err != nil {
		return err
	}

	c.reply(ctx, domain.Response{ChatID: chatID, Text: fmt.Sprintf("Conversa renomeada para <b>%s</b>.", render.UserMessage(title))})
	return nil
}

// Delete removes the current conversation and moves the chat to the next most recent one.
func (c *conversationService) Delete(ctx context.Context, chatID int64) error {
	s, err := c.Current(ctx, chatID)
	if err != nil {
		return err
	}

	s.Unsubscribe(chatID)
	if err := c.registry.Delete(ctx, s.ID()); err != nil {
		return err
	}

	state := c.state(chatID)
	state.CurrentConversationID = ""
	c.states.Save(state)

	c.reply(ctx, domain.Response{ChatID: chatID, Text: "Conversa apagada."})
	return c.Start(ctx, chatID)
}

func (c *conversationService) Help(ctx context.Context, chatID int64) {
	c.reply(ctx, domain.Response{ChatID: chatID, Text: helpText})
}

func (c *conversationService) state(chatID int64) domain.ChatState {
	state, ok := c.states.Get(chatID)
	if !ok {
		return domain.ChatState{ChatID: chatID}
	}
	return state
}

func (c *conversationService) attach(chatID int64, s *Session) {
	state := c.state(chatID)
	state.CurrentConversationID = s.ID()
	c.states.Save(state)
	s.Subscribe(chatID, c.responseCh)
}

func (c *conversationService) detach(ctx context.Context, chatID int64) {
	id := c.state(chatID).CurrentConversationID
	if id == "" {
		return
	}
	s, err := c.registry.Session(ctx, id)
	if err != nil {
		return
	}
	s.Unsubscribe(chatID)
	s.Cancel()
}

func (c *conversationService) reply(ctx context.Context, resp domain.Response) {
	send(ctx, c.responseCh, resp)
}
