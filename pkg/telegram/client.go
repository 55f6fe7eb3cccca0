package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/logger"
	"github.com/dskvich/ifood-info-bot/pkg/render"
)

const (
	maxMessageLength = 4096
	backButtonLabel  = "⬅️ Voltar ao início"
	errorText        = "Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente."
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type client struct {
	bot       botAPI
	updatesCh tgbotapi.UpdatesChannel

	mu sync.Mutex
	// status holds the id of the progress message shown in each chat.
	status map[int64]int
}

func NewClient(token string) (*client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %w", err)
	}

	slog.Info("Authorized on telegram", "account", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	c := newClient(bot)
	c.updatesCh = bot.GetUpdatesChan(u)
	return c, nil
}

func newClient(bot botAPI) *client {
	return &client{
		bot:    bot,
		status: make(map[int64]int),
	}
}

func (c *client) GetUpdates() tgbotapi.UpdatesChannel {
	return c.updatesCh
}

func (c *client) StartTyping(ctx context.Context, chatID int64) {
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.WarnContext(ctx, "Failed to send typing action", "chatID", chatID, logger.Err(err))
	}
}

func (c *client) AcknowledgeCallback(ctx context.Context, callbackQueryID string) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackQueryID, "")); err != nil {
		slog.WarnContext(ctx, "Failed to acknowledge callback", logger.Err(err))
	}
}

func (c *client) SendResponse(ctx context.Context, resp *domain.Response) {
	switch {
	case resp.Typing:
		c.StartTyping(ctx, resp.ChatID)
	case resp.ProgressCleared:
		c.clearStatus(ctx, resp.ChatID)
	case resp.Progress != nil:
		c.showStatus(ctx, resp.ChatID, statusText(*resp.Progress))
	case resp.Message != nil:
		c.sendMessage(ctx, resp.ChatID, resp.Message)
	case resp.Err != nil:
		slog.ErrorContext(ctx, "Delivering error to chat", "chatID", resp.ChatID, logger.Err(resp.Err))
		c.sendHTML(ctx, resp.ChatID, errorText, nil)
	case resp.Text != "":
		c.sendHTML(ctx, resp.ChatID, resp.Text, keyboardMarkup(resp.Keyboard))
	}
}

func (c *client) sendMessage(ctx context.Context, chatID int64, msg *domain.Message) {
	// Users already see what they typed or tapped.
	if msg.Sender == domain.SenderUser {
		return
	}

	if msg.Type == domain.MessageTypeThemeMenu && msg.ThemeData != nil {
		c.sendHTML(ctx, chatID, "<b>"+html.EscapeString(msg.ThemeData.Title)+"</b>", themeMenuMarkup(msg.ThemeData))
		return
	}

	for _, chunk := range render.Chunks(render.BotMessage(msg.Text), maxMessageLength) {
		c.sendHTML(ctx, chatID, chunk, nil)
	}
}

func (c *client) sendHTML(ctx context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := c.bot.Send(msg)
	if err == nil {
		return sent.MessageID, true
	}

	slog.WarnContext(ctx, "Failed to send html message, retrying as plain text", "chatID", chatID, logger.Err(err))
	msg.ParseMode = ""
	if sent, err = c.bot.Send(msg); err != nil {
		slog.ErrorContext(ctx, "Failed to send message", "chatID", chatID, logger.Err(err))
		return 0, false
	}
	return sent.MessageID, true
}

// showStatus edits the chat's progress message in place, creating it on first use.
func (c *client) showStatus(ctx context.Context, chatID int64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.status[chatID]; ok {
		edit := tgbotapi.NewEditMessageText(chatID, id, text)
		edit.ParseMode = tgbotapi.ModeHTML
		if _, err := c.bot.Send(edit); err != nil {
			slog.DebugContext(ctx, "Failed to edit status message", "chatID", chatID, logger.Err(err))
		}
		return
	}

	if id, ok := c.sendHTML(ctx, chatID, text, nil); ok {
		c.status[chatID] = id
	}
}

func (c *client) clearStatus(ctx context.Context, chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.status[chatID]
	if !ok {
		return
	}
	delete(c.status, chatID)

	if _, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, id)); err != nil {
		slog.WarnContext(ctx, "Failed to delete status message", "chatID", chatID, logger.Err(err))
	}
}

func statusText(p domain.SearchProgress) string {
	text := "⏳ <i>" + p.Label() + "...</i>"
	if p.ElapsedSeconds > 0 && p.Stage != domain.StageWaiting {
		text += fmt.Sprintf(" %ds", p.ElapsedSeconds)
	}
	return text
}

func themeMenuMarkup(data *domain.ThemeData) *tgbotapi.InlineKeyboardMarkup {
	rows := lo.Map(data.Themes, func(t domain.ThemeOption, _ int) []tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(t.Label, domain.ThemeCallbackPrefix+t.ID))
	})
	if len(data.Breadcrumb) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(backButtonLabel, domain.BackCallback)))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func keyboardMarkup(kb *domain.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if kb == nil || len(kb.Buttons) == 0 {
		return nil
	}

	perRow := max(kb.ButtonsPerRow, 1)
	rows := lo.Map(lo.Chunk(kb.Buttons, perRow), func(chunk []domain.Button, _ int) []tgbotapi.InlineKeyboardButton {
		return lo.Map(chunk, func(b domain.Button, _ int) tgbotapi.InlineKeyboardButton {
			return tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data)
		})
	})

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
