package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docledger/docledger/internal/authority"
)

func TestResolve(t *testing.T) {
	thresholds := authority.Thresholds{Level1: 100000, Level2: 1000000}

	type testCase struct {
		name         string
		role         authority.Role
		amount       int64
		wantOK       bool
		wantRequired authority.Role
	}

	tests := []testCase{
		{
			name:         "StaffBelowLevel1",
			role:         authority.RoleStaff,
			amount:       50000,
			wantOK:       false,
			wantRequired: authority.RoleLeader,
		},
		{
			name:         "LeaderBelowLevel1",
			role:         authority.RoleLeader,
			amount:       99999,
			wantOK:       true,
			wantRequired: authority.RoleLeader,
		},
		{
			name:         "LeaderAtLevel1",
			role:         authority.RoleLeader,
			amount:       100000,
			wantOK:       false,
			wantRequired: authority.RoleManager,
		},
		{
			name:         "ManagerMidBand",
			role:         authority.RoleManager,
			amount:       150000,
			wantOK:       true,
			wantRequired: authority.RoleManager,
		},
		{
			name:         "ManagerAtLevel2",
			role:         authority.RoleManager,
			amount:       1000000,
			wantOK:       false,
			wantRequired: authority.RoleAdmin,
		},
		{
			name:         "AdminAboveLevel2",
			role:         authority.RoleAdmin,
			amount:       5000000,
			wantOK:       true,
			wantRequired: authority.RoleAdmin,
		},
		{
			name:         "AdminAnywhere",
			role:         authority.RoleAdmin,
			amount:       1,
			wantOK:       true,
			wantRequired: authority.RoleLeader,
		},
		{
			name:         "UnknownRole",
			role:         authority.Role("intern"),
			amount:       1,
			wantOK:       false,
			wantRequired: authority.RoleLeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := authority.Resolve(tt.role, tt.amount, thresholds)

			assert.Equal(t, tt.wantOK, got.Authorized)
			assert.Equal(t, tt.wantRequired, got.Required)
		})
	}
}

// Amounts at or above level2 must always require admin, regardless of how
// senior the non-admin actor is.
func TestResolve_TopTierRequiresAdmin(t *testing.T) {
	thresholds := authority.Thresholds{Level1: 100000, Level2: 1000000}
	amounts := []int64{1000000, 1000001, 99999999}
	roles := []authority.Role{authority.RoleStaff, authority.RoleLeader, authority.RoleManager}

	for _, amount := range amounts {
		for _, role := range roles {
			got := authority.Resolve(role, amount, thresholds)

			assert.False(t, got.Authorized, "role %s amount %d", role, amount)
			assert.Equal(t, authority.RoleAdmin, got.Required)
		}
	}
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, authority.RoleAdmin.AtLeast(authority.RoleManager))
	assert.True(t, authority.RoleManager.AtLeast(authority.RoleManager))
	assert.False(t, authority.RoleLeader.AtLeast(authority.RoleManager))
	assert.False(t, authority.Role("").AtLeast(authority.RoleStaff))
}
