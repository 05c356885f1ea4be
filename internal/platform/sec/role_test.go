// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemark/notemark/internal/platform/sec"
)

/*
TestParseRole verifies that only the closed role enumeration is accepted.
*/
func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    sec.Role
		isValid bool
	}{
		{"user", "ROLE_USER", sec.RoleUser, true},
		{"admin", "ROLE_ADMIN", sec.RoleAdmin, true},
		{"manager", "ROLE_MANAGER", sec.RoleManager, true},
		{"viewer", "ROLE_VIEWER", sec.RoleViewer, true},
		{"unknown", "ROLE_WIZARD", "", false},
		{"lowercase_rejected", "role_user", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, ok := sec.ParseRole(tt.input)
			assert.Equal(t, tt.isValid, ok)
			assert.Equal(t, tt.want, role)
			assert.Equal(t, tt.isValid, sec.IsValidRole(tt.input))
		})
	}
}

/*
TestAllRoleNames verifies the enumeration is complete.
*/
func TestAllRoleNames(t *testing.T) {
	names := sec.AllRoleNames()

	require.Len(t, names, 4)
	assert.Contains(t, names, "ROLE_USER")
	assert.Contains(t, names, "ROLE_ADMIN")
	assert.Contains(t, names, "ROLE_MANAGER")
	assert.Contains(t, names, "ROLE_VIEWER")
}

/*
TestRoleNames_RoundTrip verifies wire-name conversion both ways.
*/
func TestRoleNames_RoundTrip(t *testing.T) {
	roles := []sec.Role{sec.RoleUser, sec.RoleAdmin}

	names := sec.RoleNames(roles)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, names)

	back := sec.RolesFromNames(names)
	assert.Equal(t, roles, back)
}

/*
TestContainsRole verifies set membership.
*/
func TestContainsRole(t *testing.T) {
	roles := []sec.Role{sec.RoleUser, sec.RoleViewer}

	assert.True(t, sec.ContainsRole(roles, sec.RoleViewer))
	assert.False(t, sec.ContainsRole(roles, sec.RoleAdmin))
	assert.False(t, sec.ContainsRole(nil, sec.RoleUser))
}
