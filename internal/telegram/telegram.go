// Package telegram connects the budgeting wizard to the Telegram Bot API
// through long polling.
package telegram

import (
	"context"

	"budget-bot/internal/handlers"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler answers one wizard event.
type Handler interface {
	Handle(ctx context.Context, ev handlers.Event) handlers.Reply
}

// Bot polls for updates and answers them one at a time.
type Bot struct {
	api         API
	handler     Handler
	log         *zap.SugaredLogger
	pollTimeout int
}

// NewBot creates a Bot. pollTimeout is the long-polling timeout in seconds.
func NewBot(api API, handler Handler, log *zap.SugaredLogger, pollTimeout int) *Bot {
	return &Bot{api: api, handler: handler, log: log, pollTimeout: pollTimeout}
}

// Run processes updates until ctx is cancelled or the update channel closes.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("Stopping update loop")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, chatID, ok := toEvent(update)
	if !ok {
		return
	}

	if cq := update.CallbackQuery; cq != nil {
		// Stops the client-side loading indicator on the pressed button.
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.log.Warnw("answer callback failed", "user_id", ev.UserID, "error", err)
		}
	}

	reply := b.handler.Handle(ctx, ev)
	if reply.Text == "" {
		return
	}

	if _, err := b.api.Send(toMessage(chatID, reply)); err != nil {
		b.log.Errorw("send reply failed", "user_id", ev.UserID, "chat_id", chatID, "error", err)
	}
}

// toEvent converts an update into a wizard event and the chat to answer in.
func toEvent(update tgbotapi.Update) (handlers.Event, int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return handlers.Event{}, 0, false
		}
		return handlers.Event{
			UserID:   cq.From.ID,
			Username: cq.From.UserName,
			Kind:     handlers.EventAction,
			Payload:  cq.Data,
		}, cq.Message.Chat.ID, true

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil || msg.Text == "" {
			return handlers.Event{}, 0, false
		}
		ev := handlers.Event{
			UserID:   msg.From.ID,
			Username: msg.From.UserName,
			Kind:     handlers.EventText,
			Payload:  msg.Text,
		}
		if msg.IsCommand() {
			ev.Kind = handlers.EventCommand
			ev.Payload = "/" + msg.Command()
		}
		return ev, msg.Chat.ID, true
	}

	return handlers.Event{}, 0, false
}

func toMessage(chatID int64, reply handlers.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Keyboard) == 0 {
		return msg
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Keyboard))
	for _, row := range reply.Keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, buttons)
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return msg
}
