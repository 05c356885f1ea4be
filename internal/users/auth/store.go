// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package auth

import (
	"context"
	"time"
)

// # Account Data Access

// AccountRepository defines the data access contract for accounts, scoped to
// what the authentication flows need.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id int64) (*Account, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	/*
		UpdatePassword replaces only the account's password hash.

		Parameters:
		  - context: context.Context
		  - accountID: int64
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, accountID int64, newHash string) error
}

// # Refresh Token Data Access

// RefreshTokenRepository defines the data access contract for issued refresh tokens.
type RefreshTokenRepository interface {

	/*
		Save persists a newly issued refresh token.

		Parameters:
		  - context: context.Context
		  - token: *RefreshToken

		Returns:
		  - error: Persistence failures
	*/
	Save(context context.Context, token *RefreshToken) error

	/*
		FindByToken returns the stored record matching the exact token string,
		regardless of its revocation or expiry state.

		Parameters:
		  - context: context.Context
		  - tokenString: string

		Returns:
		  - *RefreshToken: Hydrated record
		  - error: apperr.NotFound if the token was never issued
	*/
	FindByToken(context context.Context, tokenString string) (*RefreshToken, error)

	/*
		ListByAccount returns every stored token belonging to the account,
		newest first, regardless of state. Used for bulk invalidation and
		session inspection.

		Parameters:
		  - context: context.Context
		  - accountID: int64

		Returns:
		  - []RefreshToken: All records for the account
		  - error: Retrieval failures
	*/
	ListByAccount(context context.Context, accountID int64) ([]RefreshToken, error)

	/*
		Revoke marks a specific stored token as permanently invalidated.

		Parameters:
		  - context: context.Context
		  - tokenID: int64

		Returns:
		  - error: Persistence failures
	*/
	Revoke(context context.Context, tokenID int64) error

	/*
		RevokeAllForAccount revokes every live token belonging to the account.

		Parameters:
		  - context: context.Context
		  - accountID: int64

		Returns:
		  - error: Persistence failures
	*/
	RevokeAllForAccount(context context.Context, accountID int64) error

	/*
		Rotate atomically revokes the old token and saves its replacement.
		Either both writes land or neither does.

		Parameters:
		  - context: context.Context
		  - oldTokenID: int64
		  - newToken: *RefreshToken

		Returns:
		  - error: Transaction failures
	*/
	Rotate(context context.Context, oldTokenID int64, newToken *RefreshToken) error

	/*
		DeleteExpired physically removes tokens whose ExpiresAt is in the past.

		Parameters:
		  - context: context.Context

		Returns:
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context) error
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing volatile password reset tokens.
type ResetTokenRepository interface {

	/*
		Set stores a reset token associated with an accountID for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - accountID: int64
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, accountID int64, ttl time.Duration) error

	/*
		Get retrieves the accountID associated with a given reset token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - int64: AccountID
		  - error: apperr.NotFound if absent or expired
	*/
	Get(context context.Context, token string) (int64, error)

	/*
		Delete removes a reset token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
