package notify

import (
	"os"
	"strconv"
	"strings"

	"watchtower/internal/config"
	logx "watchtower/pkg/logx"
)

// Environment keys holding destination secrets.
const (
	EnvSlackWebhook   = "SLACK_WEBHOOK_URL"
	EnvDiscordWebhook = "DISCORD_WEBHOOK_URL"
	EnvTelegramToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

// SinksFromEnv builds the sinks for every destination that is both enabled
// in config and has its secret present. A missing secret is a silent skip
// (logged at debug), not an error.
func SinksFromEnv(cfg config.NotifiersConfig, log logx.Logger) []Sink {
	var sinks []Sink

	if cfg.Slack {
		if url := strings.TrimSpace(os.Getenv(EnvSlackWebhook)); url != "" {
			sinks = append(sinks, NewSlack(url, nil))
		} else {
			log.Debug("slack enabled but webhook url missing; skipping", logx.String("env", EnvSlackWebhook))
		}
	}

	if cfg.Discord {
		if url := strings.TrimSpace(os.Getenv(EnvDiscordWebhook)); url != "" {
			sinks = append(sinks, NewDiscord(url, nil))
		} else {
			log.Debug("discord enabled but webhook url missing; skipping", logx.String("env", EnvDiscordWebhook))
		}
	}

	if cfg.Telegram {
		token := strings.TrimSpace(os.Getenv(EnvTelegramToken))
		chatID, _ := strconv.ParseInt(strings.TrimSpace(os.Getenv(EnvTelegramChatID)), 10, 64)
		if token != "" && chatID != 0 {
			tg, err := NewTelegram(token, chatID)
			if err != nil {
				log.Warn("telegram sink init failed; skipping", logx.Err(err))
			} else {
				sinks = append(sinks, tg)
			}
		} else {
			log.Debug("telegram enabled but token/chat id missing; skipping",
				logx.String("env", EnvTelegramToken+","+EnvTelegramChatID))
		}
	}

	return sinks
}
