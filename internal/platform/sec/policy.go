// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package sec

// # Identity

// Identity is the resolved caller attached to a request after bearer-token
// authentication.
//
// Roles are loaded fresh from the account store on every request rather than
// baked into the token, so a role change takes effect on the very next
// request instead of waiting for token expiry.
type Identity struct {
	AccountID int64
	Email     string
	Roles     []Role
}

// HasRole reports whether the identity holds the target role.
// Safe on a nil identity (anonymous caller): always false.
func (identity *Identity) HasRole(target Role) bool {
	if identity == nil {
		return false
	}
	return ContainsRole(identity.Roles, target)
}

// HasAnyRole reports whether the identity holds at least one of the targets.
func (identity *Identity) HasAnyRole(targets ...Role) bool {
	for _, target := range targets {
		if identity.HasRole(target) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity holds ROLE_ADMIN.
func (identity *Identity) IsAdmin() bool { return identity.HasRole(RoleAdmin) }

// IsManager reports whether the identity holds ROLE_MANAGER.
func (identity *Identity) IsManager() bool { return identity.HasRole(RoleManager) }

// IsOwner reports whether the identity is the account with the given ID.
// It never fails: an anonymous caller is the owner of nothing.
func (identity *Identity) IsOwner(accountID int64) bool {
	if identity == nil {
		return false
	}
	return identity.AccountID == accountID
}

// # Access Policy
//
// The policy functions are pure predicates over (caller, resource owner).
// They decide; the calling layer invokes them before mutating state and
// translates a negative decision into a 403.

// CanReadResource reports whether the caller may read a resource with the
// given owner. Admins and managers read everything; everyone else reads only
// what they own. An ownerless resource is readable by admins and managers
// only.
func CanReadResource(identity *Identity, ownerID *int64) bool {
	if identity == nil {
		return false
	}
	if identity.IsAdmin() || identity.IsManager() {
		return true
	}
	return ownerID != nil && identity.IsOwner(*ownerID)
}

// CanMutateResource reports whether the caller may update or delete a
// resource with the given owner.
//
// Admins mutate anything. Every other authenticated role mutates only
// resources it owns — including managers, whose read-all privilege does not
// extend to writes. A resource with no owner is mutable by admins only.
func CanMutateResource(identity *Identity, ownerID *int64) bool {
	if identity == nil {
		return false
	}
	if identity.IsAdmin() {
		return true
	}
	return ownerID != nil && identity.IsOwner(*ownerID)
}
