package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhook posts JSON documents to a fixed URL.
type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook returns a notifier for url with the given request timeout.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "learning-platform-webhook")
	return &Webhook{client: client, url: url}
}

// Post sends body as JSON. Non-2xx responses are errors.
func (w *Webhook) Post(ctx context.Context, eventType string, body any) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("X-Event-Type", eventType).
		SetBody(body).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", eventType, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s: unexpected status %d", eventType, resp.StatusCode())
	}
	return nil
}
