package monitor

import (
	"fmt"
	"time"

	"watchtower/internal/classify"
	"watchtower/internal/config"
	"watchtower/internal/notify"
	"watchtower/internal/source"
)

// maxItemMessages caps per-item notifications per target per cycle; anything
// beyond it is folded into one overflow summary.
const maxItemMessages = 3

const timestampFormat = "2006-01-02 15:04:05 MST"

func itemMessage(t config.Target, it source.Item, level classify.Level, comment string) notify.Message {
	headline := fmt.Sprintf("🚨 Update detected [%s] (level:%s)", t.DisplayTitle(), level)
	body := fmt.Sprintf("%s\n- Title: %s\n- Summary: %s\n- Published: %s\n- Source: %s",
		comment, it.Title, it.Summary, it.Published, it.Source)
	return notify.Message{Headline: headline, Body: body, URL: it.URL}
}

func overflowMessage(t config.Target, remaining int) notify.Message {
	return notify.Message{
		Headline: fmt.Sprintf("📌 More updates [%s]", t.DisplayTitle()),
		Body:     fmt.Sprintf("%d more new/updated item(s). Raise max_items to track them individually.", remaining),
		URL:      "(see individual notifications)",
	}
}

func errorMessage(t config.Target, at time.Time, err error) notify.Message {
	return notify.Message{
		Headline: fmt.Sprintf("⚠️ Fetch failed [%s]", t.DisplayTitle()),
		Body: fmt.Sprintf("Time: %s\nKind: %s\nError: %s\nHint: check the URL, parameters, and network",
			at.Format(timestampFormat), t.Kind, source.SafeText(err.Error())),
		URL: t.URL,
	}
}
