// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

/*
Package account handles account registration, profile management, and role
administration.

It provides functionality for members to view and update their own identity
data and for administrators to list accounts and manage role assignments.

# Architecture

  - Domain: This package depends on the auth package for the Account entity.
  - Security: Role changes are validated against the closed role enumeration
    and always leave an account with at least one role.
*/
package account

import (
	"context"

	"github.com/notemark/notemark/internal/platform/sec"
	"github.com/notemark/notemark/internal/users/auth"
	"github.com/notemark/notemark/pkg/pagination"
)

// # Repository Contracts

// ListFilter narrows an account listing.
type ListFilter struct {
	// Name filters by case-insensitive substring match on the account name.
	Name string
}

// AccountRepository defines the persistence contract for account management.
type AccountRepository interface {
	/*
		Create persists a brand-new account.

		Parameters:
		  - context: context.Context
		  - account: *auth.Account (ID is assigned on insert)

		Returns:
		  - error: Conflict on duplicate email, or storage failures
	*/
	Create(context context.Context, account *auth.Account) error

	/*
		FindByID retrieves an account by its unique ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *auth.Account: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*auth.Account, error)

	/*
		FindByEmail retrieves an account by its unique email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *auth.Account: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*auth.Account, error)

	/*
		List returns a page of accounts plus the unfiltered total.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter
		  - params: pagination.Params

		Returns:
		  - []auth.Account: The requested page
		  - int: Total matching rows
		  - error: Retrieval failures
	*/
	List(context context.Context, filter ListFilter, params pagination.Params) ([]auth.Account, int, error)

	/*
		Update modifies the mutable profile fields of an existing account.

		Parameters:
		  - context: context.Context
		  - account: *auth.Account (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	Update(context context.Context, account *auth.Account) error

	/*
		UpdateRoles replaces the account's role set.

		Parameters:
		  - context: context.Context
		  - accountID: int64
		  - roles: []sec.Role

		Returns:
		  - error: Storage failures
	*/
	UpdateRoles(context context.Context, accountID int64, roles []sec.Role) error

	/*
		Delete permanently removes an account row.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: apperr.NotFound or execution failures
	*/
	Delete(context context.Context, id int64) error
}

// TokenRevoker is the slice of the auth store needed to force sign-out when
// an account is deleted.
type TokenRevoker interface {
	RevokeAllForAccount(context context.Context, accountID int64) error
}
