package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const dispatchTimeout = 10 * time.Second

// WebhookDispatcher POSTs each event as JSON to a configured endpoint.
// Delivery runs in its own goroutine; failures are logged here and never
// reach the caller.
type WebhookDispatcher struct {
	client *resty.Client
	url    string
}

func NewWebhookDispatcher(url string) *WebhookDispatcher {
	client := resty.New().
		SetTimeout(dispatchTimeout).
		SetRetryCount(2)

	return &WebhookDispatcher{client: client, url: url}
}

func (d *WebhookDispatcher) Dispatch(_ context.Context, ev Event) {
	// Deliberately detached from the request context: the originating
	// operation has already committed.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		resp, err := d.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(ev).
			Post(d.url)
		if err != nil {
			slog.Error("webhook dispatch failed", "event_type", ev.Type, "document_id", ev.DocumentID, "error", err)
			return
		}

		if resp.IsError() {
			slog.Error("webhook dispatch rejected", "event_type", ev.Type, "document_id", ev.DocumentID, "status", resp.StatusCode())
		}
	}()
}
