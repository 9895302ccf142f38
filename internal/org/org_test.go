package org_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/org"
)

type fakeRepo struct {
	settings map[uuid.UUID]*org.Settings
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{settings: make(map[uuid.UUID]*org.Settings)}
}

func (r *fakeRepo) GetSettings(_ context.Context, orgID uuid.UUID) (*org.Settings, error) {
	s, ok := r.settings[orgID]
	if !ok {
		return nil, document.ErrNotFound
	}

	copied := *s

	return &copied, nil
}

func (r *fakeRepo) UpsertSettings(_ context.Context, s *org.Settings) error {
	copied := *s
	r.settings[s.OrgID] = &copied

	return nil
}

func TestService_Get_Defaults(t *testing.T) {
	svc := org.NewService(newFakeRepo())

	settings, err := svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, org.DefaultLevel1, settings.Level1Threshold)
	assert.Equal(t, org.DefaultLevel2, settings.Level2Threshold)
}

func TestService_Update(t *testing.T) {
	repo := newFakeRepo()
	svc := org.NewService(repo)

	admin := authority.Actor{ID: uuid.New(), Role: authority.RoleAdmin, OrgID: uuid.New()}

	saved, err := svc.Update(context.Background(), admin, org.Settings{
		Level1Threshold: 50000,
		Level2Threshold: 500000,
	})
	require.NoError(t, err)
	assert.Equal(t, admin.OrgID, saved.OrgID)

	thresholds, err := svc.Thresholds(context.Background(), admin.OrgID)
	require.NoError(t, err)
	assert.Equal(t, authority.Thresholds{Level1: 50000, Level2: 500000}, thresholds)
}

func TestService_Update_AdminOnly(t *testing.T) {
	svc := org.NewService(newFakeRepo())

	for _, role := range []authority.Role{authority.RoleStaff, authority.RoleLeader, authority.RoleManager} {
		actor := authority.Actor{ID: uuid.New(), Role: role, OrgID: uuid.New()}

		_, err := svc.Update(context.Background(), actor, org.Settings{
			Level1Threshold: 50000,
			Level2Threshold: 500000,
		})

		var authErr *document.AuthorizationError
		require.ErrorAs(t, err, &authErr, "role %s", role)
		assert.Equal(t, authority.RoleAdmin, authErr.Required)
	}
}

func TestService_Update_Invalid(t *testing.T) {
	svc := org.NewService(newFakeRepo())
	admin := authority.Actor{ID: uuid.New(), Role: authority.RoleAdmin, OrgID: uuid.New()}

	tests := []struct {
		name     string
		settings org.Settings
	}{
		{"ZeroLevel1", org.Settings{Level1Threshold: 0, Level2Threshold: 500000}},
		{"Level2BelowLevel1", org.Settings{Level1Threshold: 500000, Level2Threshold: 50000}},
		{"Level2EqualsLevel1", org.Settings{Level1Threshold: 50000, Level2Threshold: 50000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), admin, tt.settings)

			var valErr *document.ValidationError
			require.ErrorAs(t, err, &valErr)
		})
	}
}
