package push

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/okian/crease/internal/domain/model"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends each payload as a message to one chat.
type Telegram struct {
	bot    messageSender
	chatID int64
}

// NewTelegram authenticates the bot and returns a pusher for chatID.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, wrap("telegram", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Deliver sends the message. The bot API has no context support; ctx is only checked up front.
func (t *Telegram) Deliver(ctx context.Context, userID string, payload model.PushPayload) error {
	if err := ctx.Err(); err != nil {
		return wrap("telegram", err)
	}
	msg := tgbotapi.NewMessage(t.chatID, telegramText(userID, payload))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return wrap("telegram", err)
	}
	return nil
}

func telegramText(userID string, payload model.PushPayload) string {
	return fmt.Sprintf("<b>%s</b>\n%s\n<i>for %s</i>",
		tgbotapi.EscapeText(tgbotapi.ModeHTML, payload.Title),
		tgbotapi.EscapeText(tgbotapi.ModeHTML, payload.Body),
		tgbotapi.EscapeText(tgbotapi.ModeHTML, userID))
}
