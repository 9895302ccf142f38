package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/org"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetSettings(ctx context.Context, orgID uuid.UUID) (*org.Settings, error) {
	query := `
		SELECT org_id, level1_threshold, level2_threshold, updated_at
		FROM org_settings
		WHERE org_id = $1
	`

	var settings org.Settings

	err := s.db.QueryRowContext(ctx, query, orgID).Scan(
		&settings.OrgID,
		&settings.Level1Threshold,
		&settings.Level2Threshold,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("getting org settings: %w", err)
	}

	return &settings, nil
}

func (s *Store) UpsertSettings(ctx context.Context, settings *org.Settings) error {
	query := `
		INSERT INTO org_settings (org_id, level1_threshold, level2_threshold, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (org_id) DO UPDATE
		SET level1_threshold = EXCLUDED.level1_threshold,
			level2_threshold = EXCLUDED.level2_threshold,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		settings.OrgID, settings.Level1Threshold, settings.Level2Threshold,
	).Scan(&settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving org settings: %w", err)
	}

	return nil
}
