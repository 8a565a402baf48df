package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mmcdole/gofeed"

	"watchtower/internal/config"
)

// Feed fetches RSS 1.0/2.0 and Atom feeds. gofeed handles format sniffing.
type Feed struct {
	parser *gofeed.Parser
}

func NewFeed(client *http.Client) *Feed {
	fp := gofeed.NewParser()
	fp.Client = client
	fp.UserAgent = userAgent
	return &Feed{parser: fp}
}

func (f *Feed) Fetch(ctx context.Context, t config.Target) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(t.URL, ctx)
	if err != nil {
		if _, ok := err.(gofeed.HTTPError); ok {
			return nil, fmt.Errorf("%w: feed %s: %v", ErrTransport, t.URL, err)
		}
		return nil, fmt.Errorf("%w: feed %s: %v", ErrParse, t.URL, err)
	}

	entries := feed.Items
	if len(entries) > t.MaxItems {
		entries = entries[:t.MaxItems]
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		link := SafeText(e.Link)
		title := SafeText(e.Title)
		published := SafeText(e.Published)
		if published == "" {
			published = SafeText(e.Updated)
		}
		// Some feeds omit per-entry ids; fall back to a content hash so the
		// dedup key stays deterministic.
		id := SafeText(e.GUID)
		if id == "" {
			id = ContentHash(link, title)
		}
		items = append(items, Item{
			ID:        id,
			Title:     title,
			Summary:   summaryText(e.Description),
			URL:       link,
			Published: published,
			Source:    "RSS",
		})
	}
	return items, nil
}
