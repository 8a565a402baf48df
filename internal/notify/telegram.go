package notify

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// TelegramSink sends to a chat via the Bot API. Unlike the webhook sinks it
// needs a bot token and an explicit chat id; both come from the environment.
type TelegramSink struct {
	bot    *tele.Bot
	chatID int64
}

func NewTelegram(token string, chatID int64) (*TelegramSink, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	// Send-only: no poller, telebot just wraps the HTTP API calls.
	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &TelegramSink{bot: b, chatID: chatID}, nil
}

func (t *TelegramSink) Name() string { return "telegram" }

func (t *TelegramSink) Send(ctx context.Context, m Message) error {
	_ = ctx
	text := m.Headline + "\n" + m.Body
	if m.URL != "" {
		text += "\n" + m.URL
	}
	_, err := t.bot.Send(&tele.Chat{ID: t.chatID}, text)
	return err
}
