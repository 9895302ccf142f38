// Package org holds per-organization settings, most importantly the
// amount thresholds that drive approval authority.
package org

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
)

// Defaults used for organizations that never configured thresholds.
const (
	DefaultLevel1 int64 = 100000  // 1,000.00
	DefaultLevel2 int64 = 1000000 // 10,000.00
)

// Settings is the configuration of one organization.
type Settings struct {
	OrgID uuid.UUID `json:"org_id"`
	// Level1Threshold is the amount below which a leader may approve.
	Level1Threshold int64 `json:"level1_threshold" validate:"required,gt=0"`
	// Level2Threshold is the amount below which a manager may approve;
	// at or above it only an admin may.
	Level2Threshold int64     `json:"level2_threshold" validate:"required,gtfield=Level1Threshold"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Repository interface {
	GetSettings(ctx context.Context, orgID uuid.UUID) (*Settings, error)
	UpsertSettings(ctx context.Context, settings *Settings) error
}

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Get returns the organization's settings, falling back to defaults
// when none were ever saved.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*Settings, error) {
	settings, err := s.repo.GetSettings(ctx, orgID)
	if err == nil {
		return settings, nil
	}

	if errors.Is(err, document.ErrNotFound) {
		return &Settings{
			OrgID:           orgID,
			Level1Threshold: DefaultLevel1,
			Level2Threshold: DefaultLevel2,
		}, nil
	}

	return nil, err
}

// Update replaces the organization's settings. Only admins may change
// thresholds, since they redefine who can approve what.
func (s *Service) Update(ctx context.Context, actor authority.Actor, settings Settings) (*Settings, error) {
	if !actor.Role.AtLeast(authority.RoleAdmin) {
		return nil, &document.AuthorizationError{Role: actor.Role, Required: authority.RoleAdmin}
	}

	settings.OrgID = actor.OrgID

	if err := s.validate.Struct(settings); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return nil, &document.ValidationError{
				Field:  strings.ToLower(invalid[0].Field()),
				Reason: "failed " + invalid[0].Tag() + " check",
			}
		}

		return nil, err
	}

	if err := s.repo.UpsertSettings(ctx, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Thresholds satisfies the document service's threshold source.
func (s *Service) Thresholds(ctx context.Context, orgID uuid.UUID) (authority.Thresholds, error) {
	settings, err := s.Get(ctx, orgID)
	if err != nil {
		return authority.Thresholds{}, err
	}

	return authority.Thresholds{
		Level1: settings.Level1Threshold,
		Level2: settings.Level2Threshold,
	}, nil
}
