package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/services"
)

const (
	busyText          = "⏳ Aguarde, ainda estou processando sua mensagem anterior."
	themeNotFoundText = "Tema não encontrado. Use /menu para ver os temas disponíveis."
	convNotFoundText  = "Conversa não encontrada. Use /conversas para ver as suas conversas."
)

type ConversationService interface {
	DisclaimerAccepted(ctx context.Context, chatID int64) bool
	ShowDisclaimer(ctx context.Context, chatID int64)
	AcceptDisclaimer(ctx context.Context, chatID int64) error
	Start(ctx context.Context, chatID int64) error
	Current(ctx context.Context, chatID int64) (*services.Session, error)
	New(ctx context.Context, chatID int64) error
	List(ctx context.Context, chatID int64) error
	Switch(ctx context.Context, chatID int64, id string) error
	Rename(ctx context.Context, chatID int64, title string) error
	Delete(ctx context.Context, chatID int64) error
	Help(ctx context.Context, chatID int64)
}

type handler struct {
	conversations ConversationService
	responseCh    chan<- domain.Response
}

func NewHandler(conversations ConversationService, responseCh chan<- domain.Response) *handler {
	return &handler{
		conversations: conversations,
		responseCh:    responseCh,
	}
}

func (h *handler) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)

	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *handler) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	data := callback.Data

	if data == domain.DisclaimerCallback {
		h.reply(ctx, chatID, h.conversations.AcceptDisclaimer(ctx, chatID))
		return
	}
	if !h.conversations.DisclaimerAccepted(ctx, chatID) {
		h.conversations.ShowDisclaimer(ctx, chatID)
		return
	}

	switch {
	case strings.HasPrefix(data, domain.ThemeCallbackPrefix):
		h.withSession(ctx, chatID, func(s *services.Session) error {
			return s.SelectTheme(ctx, strings.TrimPrefix(data, domain.ThemeCallbackPrefix))
		})
	case data == domain.BackCallback:
		h.withSession(ctx, chatID, func(s *services.Session) error {
			return s.BackToMainMenu(ctx)
		})
	case strings.HasPrefix(data, domain.ConversationCallbackPrefix):
		h.reply(ctx, chatID, h.conversations.Switch(ctx, chatID, strings.TrimPrefix(data, domain.ConversationCallbackPrefix)))
	default:
		slog.WarnContext(ctx, "Unhandled callback", "data", data)
	}
}

func (h *handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() && msg.Command() == "start" {
		h.reply(ctx, chatID, h.conversations.Start(ctx, chatID))
		return
	}
	if !h.conversations.DisclaimerAccepted(ctx, chatID) {
		h.conversations.ShowDisclaimer(ctx, chatID)
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, chatID, msg.Command(), msg.CommandArguments())
		return
	}

	h.withSession(ctx, chatID, func(s *services.Session) error {
		return s.SendMessage(ctx, msg.Text)
	})
}

func (h *handler) handleCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch strings.ToLower(cmd) {
	case "novo":
		h.reply(ctx, chatID, h.conversations.New(ctx, chatID))
	case "limpar":
		h.withSession(ctx, chatID, func(s *services.Session) error {
			s.Clear(ctx)
			return nil
		})
	case "menu":
		h.withSession(ctx, chatID, func(s *services.Session) error {
			return s.BackToMainMenu(ctx)
		})
	case "conversas":
		h.reply(ctx, chatID, h.conversations.List(ctx, chatID))
	case "renomear":
		h.reply(ctx, chatID, h.conversations.Rename(ctx, chatID, args))
	case "apagar":
		h.reply(ctx, chatID, h.conversations.Delete(ctx, chatID))
	default:
		h.conversations.Help(ctx, chatID)
	}
}

func (h *handler) withSession(ctx context.Context, chatID int64, fn func(s *services.Session) error) {
	s, err := h.conversations.Current(ctx, chatID)
	if err != nil {
		h.reply(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fn(s))
}

// reply tells the user about err, if any, in a fixed wording.
func (h *handler) reply(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	resp := domain.Response{ChatID: chatID}
	switch {
	case errors.Is(err, domain.ErrTurnInFlight):
		resp.Text = busyText
	case errors.Is(err, domain.ErrThemeNotFound):
		resp.Text = themeNotFoundText
	case errors.Is(err, domain.ErrNotFound):
		resp.Text = convNotFoundText
	case errors.Is(err, context.Canceled):
		return
	default:
		resp.Err = err
	}

	select {
	case h.responseCh <- resp:
	case <-ctx.Done():
	}
}
