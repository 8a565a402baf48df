// Package notify delivers formatted messages to the configured chat
// destinations. The core only depends on Service.Send; everything about a
// destination's wire format lives in its sink.
package notify

import (
	"context"
	"net/http"
	"time"
)

// Message is the (headline, body, url) triple the dispatcher produces.
type Message struct {
	Headline string
	Body     string
	URL      string
}

// Sink is one destination. Send is invoked once per message; a failure is
// the sink's own problem to describe, the service only logs it.
type Sink interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}
