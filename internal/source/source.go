package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"watchtower/internal/config"
)

// Error classes surfaced by adapters. Both are caught at target granularity
// by the cycle runner; the distinction only matters for logs.
var (
	ErrTransport = errors.New("transport error")
	ErrParse     = errors.New("parse error")
)

// Source turns one target's raw provider response into normalized Items.
//
// Contract:
//   - at most target.MaxItems results, in the adapter's natural relevance order
//   - zero results is an empty slice, never an error
//   - an error means transport or parse failure, nothing else
type Source interface {
	Fetch(ctx context.Context, t config.Target) ([]Item, error)
}

// New selects the adapter for a target's kind. Kinds are validated at config
// load, so the default branch only fires on a missed wiring change.
func New(t config.Target, client *http.Client, loc *time.Location) (Source, error) {
	switch t.Kind {
	case config.KindFeed:
		return NewFeed(client), nil
	case config.KindLawUpdates:
		return NewLawUpdates(client, loc), nil
	case config.KindGrants:
		return NewGrants(client), nil
	default:
		return nil, fmt.Errorf("no adapter for kind %q", t.Kind)
	}
}

const userAgent = "watchtower-notifier/1.0 (+https://github.com/)"

// NewHTTPClient returns the shared client adapters use. Fetches are the only
// suspension points in a cycle, so the timeout bounds the whole cycle too.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}

// httpGet performs a GET with the shared User-Agent and maps network and
// non-2xx failures to ErrTransport.
func httpGet(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode/100 != 2 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrTransport, url, resp.StatusCode)
	}
	return resp, nil
}
