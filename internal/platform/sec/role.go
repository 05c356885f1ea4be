// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package sec

// # Roles

// Role is one of the closed set of capability tiers an account can hold.
//
// The string values are the canonical wire names used in tokens, API bodies,
// and the database. The set is a process-wide constant: validity of a role
// string is simply membership in this enumeration.
type Role string

const (
	// RoleUser is the base role every account holds by default. An account's
	// role set is never empty; removal of the last role re-instates RoleUser.
	RoleUser Role = "ROLE_USER"

	// RoleAdmin grants unrestricted access: read and mutate any resource,
	// manage accounts and role assignments.
	RoleAdmin Role = "ROLE_ADMIN"

	// RoleManager can read every note but mutate only notes it owns.
	RoleManager Role = "ROLE_MANAGER"

	// RoleViewer is read-only: it can read owned notes but never create,
	// update, or delete.
	RoleViewer Role = "ROLE_VIEWER"
)

// allRoles is the authoritative enumeration, in stable display order.
var allRoles = []Role{RoleUser, RoleAdmin, RoleManager, RoleViewer}

// ParseRole resolves a wire name to its Role. The second return value is
// false for names outside the enumeration.
func ParseRole(name string) (Role, bool) {
	for _, role := range allRoles {
		if string(role) == name {
			return role, true
		}
	}
	return "", false
}

// IsValidRole reports whether name belongs to the role enumeration.
func IsValidRole(name string) bool {
	_, ok := ParseRole(name)
	return ok
}

// AllRoleNames returns the wire names of every known role.
func AllRoleNames() []string {
	names := make([]string, len(allRoles))
	for i, role := range allRoles {
		names[i] = string(role)
	}
	return names
}

// # Role Sets

// ContainsRole reports whether the set holds the target role.
func ContainsRole(roles []Role, target Role) bool {
	for _, role := range roles {
		if role == target {
			return true
		}
	}
	return false
}

// RolesFromNames converts wire names into roles without validation.
// Callers that accept external input must validate with [IsValidRole] first;
// this helper exists for hydrating trusted storage rows.
func RolesFromNames(names []string) []Role {
	roles := make([]Role, len(names))
	for i, name := range names {
		roles[i] = Role(name)
	}
	return roles
}

// RoleNames converts a role set back into wire names.
func RoleNames(roles []Role) []string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return names
}
