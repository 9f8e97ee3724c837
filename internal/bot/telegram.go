package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Update is one inbound chat event. Updates without a text message still
// carry an ID so the poller can move past them.
type Update struct {
	ID         int
	ChatID     int64
	Username   string
	Text       string
	HasMessage bool
	FromBot    bool
}

// Reply is one outbound message. Options become reply keyboard buttons;
// without options the main menu is shown unless RemoveKeyboard is set.
type Reply struct {
	Text           string
	Options        []string
	RemoveKeyboard bool
}

type Channel interface {
	FetchUpdates(ctx context.Context, offset int) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, reply Reply) error
}

type TelegramChannel struct {
	api     *tgbotapi.BotAPI
	timeout int
}

// NewTelegramChannel wraps api. timeout is the long poll wait in seconds.
func NewTelegramChannel(api *tgbotapi.BotAPI, timeout int) *TelegramChannel {
	return &TelegramChannel{api: api, timeout: timeout}
}

func (c *TelegramChannel) FetchUpdates(ctx context.Context, offset int) ([]Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = c.timeout
	raw, err := c.api.GetUpdates(cfg)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		update := Update{ID: u.UpdateID}
		if u.Message != nil {
			update.HasMessage = true
			update.ChatID = u.Message.Chat.ID
			update.Text = u.Message.Text
			if u.Message.From != nil {
				update.Username = u.Message.From.UserName
				update.FromBot = u.Message.From.IsBot
			}
		}
		updates = append(updates, update)
	}
	return updates, nil
}

func (c *TelegramChannel) SendMessage(_ context.Context, chatID int64, reply Reply) error {
	msg := tgbotapi.NewMessage(chatID, reply.Text)

	switch {
	case len(reply.Options) > 0:
		msg.ReplyMarkup = CreateOptionsKeyboard(reply.Options)
	case reply.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	default:
		msg.ReplyMarkup = CreateMainMenuKeyboard()
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	return nil
}
