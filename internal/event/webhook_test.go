package event_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docledger/docledger/internal/event"
)

func TestWebhookDispatcher_PostsEvent(t *testing.T) {
	received := make(chan event.Event, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var ev event.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		received <- ev

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	dispatcher := event.NewWebhookDispatcher(srv.URL)

	want := event.Event{
		DocumentID: uuid.New(),
		Type:       event.TypeApproved,
		Actor:      uuid.New(),
		Metadata:   map[string]any{"auto": true},
		OccurredAt: time.Now().UTC(),
	}

	dispatcher.Dispatch(context.Background(), want)

	select {
	case got := <-received:
		assert.Equal(t, want.DocumentID, got.DocumentID)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Actor, got.Actor)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was never called")
	}
}

// A dead endpoint must not surface to the caller; Dispatch never blocks
// or fails the operation that produced the event.
func TestWebhookDispatcher_SwallowsFailure(t *testing.T) {
	dispatcher := event.NewWebhookDispatcher("http://127.0.0.1:1")

	done := make(chan struct{})

	go func() {
		dispatcher.Dispatch(context.Background(), event.Event{
			DocumentID: uuid.New(),
			Type:       event.TypePaid,
			OccurredAt: time.Now().UTC(),
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked the caller")
	}
}
