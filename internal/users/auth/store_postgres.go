// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

// PostgreSQL implementations of the auth repositories.
//
// # Architecture
//
// Repositories in this file are strictly separated from domain logic. They
// implement domain-defined interfaces (e.g., [AccountRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/dberr"
	"github.com/notemark/notemark/internal/platform/sec"
)

// # Account Repository

// PostgresAccountRepository implements the AccountRepository interface using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

/*
FindByID retrieves an account record by its unique ID.

Description: Primary key resolution for accounts.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Account: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id int64) (*Account, error) {
	const query = `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	return repository.scanAccount(repository.pool.QueryRow(context, query, id), "find_by_id")
}

/*
FindByEmail retrieves an account record by its unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Account: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresAccountRepository) FindByEmail(context context.Context, email string) (*Account, error) {
	const query = `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM accounts
		WHERE email = $1`

	return repository.scanAccount(repository.pool.QueryRow(context, query, email), "find_by_email")
}

/*
UpdatePassword updates only the password hash for a specific account.

Parameters:
  - context: context.Context
  - accountID: int64
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) UpdatePassword(context context.Context, accountID int64, newHash string) error {
	const query = `
		UPDATE accounts
		SET password_hash = $2, updated_at = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}

	return nil
}

// scanAccount hydrates one account row, converting the roles TEXT[] column.
func (repository *PostgresAccountRepository) scanAccount(row pgx.Row, operation string) (*Account, error) {
	account := &Account{}
	var roleNames []string

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&roleNames,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_%s_failed: %w", operation, err)
	}

	account.Roles = sec.RolesFromNames(roleNames)
	return account, nil
}

// # Refresh Token Repository

// PostgresRefreshTokenRepository implements the RefreshTokenRepository interface.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository creates a new PostgreSQL implementation of RefreshTokenRepository.
func NewRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

/*
Save persists a newly issued refresh token record.

Parameters:
  - context: context.Context
  - token: *RefreshToken

Returns:
  - error: apperr.Conflict on a duplicate token string, or storage failures
*/
func (repository *PostgresRefreshTokenRepository) Save(context context.Context, token *RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (token, account_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	err := repository.pool.QueryRow(context, query,
		token.Token,
		token.AccountID,
		token.ExpiresAt,
		token.Revoked,
		token.CreatedAt,
	).Scan(&token.ID)

	if err != nil {
		return dberr.Wrap(err, "Refresh token")
	}

	return nil
}

/*
FindByToken retrieves a stored record by its exact token string.

Description: The lookup deliberately ignores revocation and expiry so callers
can distinguish "never issued" from "no longer redeemable".

Parameters:
  - context: context.Context
  - tokenString: string

Returns:
  - *RefreshToken: Hydrated record
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRefreshTokenRepository) FindByToken(context context.Context, tokenString string) (*RefreshToken, error) {
	const query = `
		SELECT id, token, account_id, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token = $1`

	token := &RefreshToken{}
	err := repository.pool.QueryRow(context, query, tokenString).Scan(
		&token.ID,
		&token.Token,
		&token.AccountID,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Refresh token")
		}
		return nil, fmt.Errorf("postgres_refresh_token_repo_find_failed: %w", err)
	}

	return token, nil
}

/*
ListByAccount returns every stored token for an account, newest first.

Parameters:
  - context: context.Context
  - accountID: int64

Returns:
  - []RefreshToken: All records for the account, any state
  - error: Retrieval failures
*/
func (repository *PostgresRefreshTokenRepository) ListByAccount(context context.Context, accountID int64) ([]RefreshToken, error) {
	const query = `
		SELECT id, token, account_id, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := repository.pool.Query(context, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres_refresh_token_repo_list_failed: %w", err)
	}
	defer rows.Close()

	tokens := make([]RefreshToken, 0)
	for rows.Next() {
		var token RefreshToken
		err := rows.Scan(
			&token.ID,
			&token.Token,
			&token.AccountID,
			&token.ExpiresAt,
			&token.Revoked,
			&token.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_refresh_token_repo_list_scan_failed: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_refresh_token_repo_list_rows_failed: %w", err)
	}

	return tokens, nil
}

/*
Revoke marks a specific stored token as revoked.

Parameters:
  - context: context.Context
  - tokenID: int64

Returns:
  - error: Revocation failures
*/
func (repository *PostgresRefreshTokenRepository) Revoke(context context.Context, tokenID int64) error {
	const query = "UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1"
	_, err := repository.pool.Exec(context, query, tokenID)
	if err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_revoke_failed: %w", err)
	}
	return nil
}

/*
RevokeAllForAccount marks all live tokens for an account as revoked.

Description: Security nuking of every open session for an account.

Parameters:
  - context: context.Context
  - accountID: int64

Returns:
  - error: Batch revocation failures
*/
func (repository *PostgresRefreshTokenRepository) RevokeAllForAccount(context context.Context, accountID int64) error {
	const query = "UPDATE refresh_tokens SET revoked = TRUE WHERE account_id = $1 AND revoked = FALSE"
	_, err := repository.pool.Exec(context, query, accountID)
	if err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_revoke_all_failed: %w", err)
	}
	return nil
}

/*
Rotate atomically revokes the old token and inserts its replacement.

Description: Runs both writes in one transaction so a crash can never leave
the rotation half-applied.

Parameters:
  - context: context.Context
  - oldTokenID: int64
  - newToken: *RefreshToken

Returns:
  - error: Transaction failures
*/
func (repository *PostgresRefreshTokenRepository) Rotate(context context.Context, oldTokenID int64, newToken *RefreshToken) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_rotate_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	const revokeQuery = "UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1"
	if _, err := transaction.Exec(context, revokeQuery, oldTokenID); err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_rotate_revoke_failed: %w", err)
	}

	const insertQuery = `
		INSERT INTO refresh_tokens (token, account_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if newToken.CreatedAt.IsZero() {
		newToken.CreatedAt = time.Now()
	}

	err = transaction.QueryRow(context, insertQuery,
		newToken.Token,
		newToken.AccountID,
		newToken.ExpiresAt,
		newToken.Revoked,
		newToken.CreatedAt,
	).Scan(&newToken.ID)

	if err != nil {
		return dberr.Wrap(err, "Refresh token")
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_rotate_commit_failed: %w", err)
	}

	return nil
}

/*
DeleteExpired permanently removes all tokens that have passed their expiration.

Description: Cleanup task to reclaim storage from stale tokens.

Parameters:
  - context: context.Context

Returns:
  - error: Cleanup failures
*/
func (repository *PostgresRefreshTokenRepository) DeleteExpired(context context.Context) error {
	const query = "DELETE FROM refresh_tokens WHERE expires_at <= NOW()"
	_, err := repository.pool.Exec(context, query)
	if err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_delete_expired_failed: %w", err)
	}
	return nil
}
