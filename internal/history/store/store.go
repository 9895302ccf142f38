package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/history"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListEntries(ctx context.Context, documentID uuid.UUID) ([]*history.Entry, error) {
	query := `
		SELECT id, document_id, action, actor_id, notes, created_at
		FROM history_entries
		WHERE document_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []*history.Entry

	for rows.Next() {
		var e history.Entry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Action, &e.ActorID, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
