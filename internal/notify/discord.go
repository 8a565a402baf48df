package notify

import (
	"context"
	"net/http"
	"strings"
)

// Discord embed field caps.
const (
	discordTitleMax       = 256
	discordDescriptionMax = 4096
)

// DiscordSink posts a single-embed webhook payload: the headline as the
// embed title, the body (with the url appended) as the description.
type DiscordSink struct {
	webhookURL string
	client     *http.Client
}

func NewDiscord(webhookURL string, client *http.Client) *DiscordSink {
	if client == nil {
		client = newHTTPClient()
	}
	return &DiscordSink{webhookURL: webhookURL, client: client}
}

func (d *DiscordSink) Name() string { return "discord" }

func (d *DiscordSink) Send(ctx context.Context, m Message) error {
	embed := map[string]any{
		"title":       truncateRunes(m.Headline, discordTitleMax),
		"description": truncateRunes(m.Body+"\n\n"+m.URL, discordDescriptionMax),
	}
	// Summary/error messages carry a placeholder instead of a link; Discord
	// rejects embeds whose url field is not a URL.
	if strings.HasPrefix(m.URL, "http://") || strings.HasPrefix(m.URL, "https://") {
		embed["url"] = m.URL
	}
	payload := map[string]any{"embeds": []map[string]any{embed}}
	return postJSON(ctx, d.client, d.webhookURL, payload)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
