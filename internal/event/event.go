// Package event hands lifecycle events to the notification dispatcher.
// Dispatch is fire-and-forget: it runs after the originating transaction
// commits and can never roll it back or block it.
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSubmitted     Type = "submitted"
	TypeApproved      Type = "approved"
	TypeRejected      Type = "rejected"
	TypeSent          Type = "sent"
	TypePaid          Type = "paid"
	TypePartiallyPaid Type = "partially_paid"
)

type Event struct {
	DocumentID uuid.UUID      `json:"document_id"`
	Type       Type           `json:"event_type"`
	Actor      uuid.UUID      `json:"actor"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// LogDispatcher writes events to the log. Used when no webhook is
// configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, ev Event) {
	slog.Info("document event",
		"document_id", ev.DocumentID,
		"event_type", ev.Type,
		"actor", ev.Actor,
	)
}
