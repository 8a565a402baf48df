package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SlackSink posts to an incoming-webhook URL using the plain mrkdwn text
// payload (headline, body and url joined into one message).
type SlackSink struct {
	webhookURL string
	client     *http.Client
}

func NewSlack(webhookURL string, client *http.Client) *SlackSink {
	if client == nil {
		client = newHTTPClient()
	}
	return &SlackSink{webhookURL: webhookURL, client: client}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Send(ctx context.Context, m Message) error {
	payload := map[string]any{
		"text":   m.Headline + "\n" + m.Body + "\n" + m.URL,
		"mrkdwn": true,
	}
	return postJSON(ctx, s.client, s.webhookURL, payload)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
