// Package history exposes the append-only audit trail of a document.
// Entries are written by the document and payment transactions alongside
// the mutation they describe; this package only ever reads them.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded action on a document.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Action     string    `json:"action"`
	ActorID    uuid.UUID `json:"actor_id"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Repository interface {
	ListEntries(ctx context.Context, documentID uuid.UUID) ([]*Entry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the full trail for a document, oldest first.
func (s *Service) List(ctx context.Context, documentID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListEntries(ctx, documentID)
}
