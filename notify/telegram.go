package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
)

type chatSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts every milestone to the staff dispatch chat.
type Telegram struct {
	chatID int64
	bot    chatSender
}

// NewTelegram authenticates the bot token against the Bot API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{chatID: chatID, bot: bot}, nil
}

func (t *Telegram) Notify(_ context.Context, kind Kind, o *models.Order) error {
	msg := tgbotapi.NewMessage(t.chatID, renderText(kind, o))
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram notify %s: %w", o.OrderNumber, err)
	}
	return nil
}
