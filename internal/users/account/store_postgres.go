// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

// PostgreSQL implementation of the account-management repository.
package account

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
	"github.com/notemark/notemark/internal/users/auth"
	"github.com/notemark/notemark/pkg/pagination"
)

// PostgresAccountRepository implements the AccountRepository interface using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

/*
Create persists a new account record into the accounts table.

Description: The database assigns the ID; roles are stored as a TEXT[] column.
A duplicate email surfaces as a Conflict.

Parameters:
  - context: context.Context
  - account: *auth.Account (Entity to persist)

Returns:
  - error: apperr.Conflict or connectivity errors
*/
func (repository *PostgresAccountRepository) Create(context context.Context, account *auth.Account) error {
	const query = `
		INSERT INTO accounts (name, email, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	err := repository.pool.QueryRow(context, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		sec.RoleNames(account.Roles),
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)

	if err != nil {
		return dberr.Wrap(err, "Account")
	}

	return nil
}

/*
FindByID retrieves an account record by its unique ID.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *auth.Account: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id int64) (*auth.Account, error) {
	const query = `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	return scanAccountRow(repository.pool.QueryRow(context, query, id), "find_by_id")
}

/*
FindByEmail retrieves an account record by its unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *auth.Account: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresAccountRepository) FindByEmail(context context.Context, email string) (*auth.Account, error) {
	const query = `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM accounts
		WHERE email = $1`

	return scanAccountRow(repository.pool.QueryRow(context, query, email), "find_by_email")
}

/*
List returns one page of accounts plus the total matching count.

Description: Optional case-insensitive substring filter on the name column,
newest accounts first.

Parameters:
  - context: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []auth.Account: The requested page
  - int: Total matching rows
  - error: Retrieval failures
*/
func (repository *PostgresAccountRepository) List(context context.Context, filter ListFilter, params pagination.Params) ([]auth.Account, int, error) {
	const countQuery = `
		SELECT COUNT(*)
		FROM accounts
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`

	var total int
	if err := repository.pool.QueryRow(context, countQuery, filter.Name).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	const listQuery = `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM accounts
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, listQuery, filter.Name, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	accounts := make([]auth.Account, 0, params.Limit)
	for rows.Next() {
		var account auth.Account
		var roleNames []string

		err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.PasswordHash,
			&roleNames,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_list_scan_failed: %w", err)
		}

		account.Roles = sec.RolesFromNames(roleNames)
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_rows_failed: %w", err)
	}

	return accounts, total, nil
}

/*
Update persists changes to an account's mutable profile fields.

Parameters:
  - context: context.Context
  - account: *auth.Account

Returns:
  - error: apperr.Conflict on duplicate email or update failures
*/
func (repository *PostgresAccountRepository) Update(context context.Context, account *auth.Account) error {
	const query = `
		UPDATE accounts
		SET name = $2, email = $3, password_hash = $4, updated_at = $5
		WHERE id = $1`

	account.UpdatedAt = time.Now()
	commandTag, err := repository.pool.Exec(context, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Account")
	}

	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

/*
UpdateRoles replaces the role set stored for an account.

Parameters:
  - context: context.Context
  - accountID: int64
  - roles: []sec.Role

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) UpdateRoles(context context.Context, accountID int64, roles []sec.Role) error {
	const query = `
		UPDATE accounts
		SET roles = $2, updated_at = $3
		WHERE id = $1`

	commandTag, err := repository.pool.Exec(context, query, accountID, sec.RoleNames(roles), time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_roles_failed: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

/*
Delete permanently removes an account row.

Description: The refresh_tokens foreign key cascades, and the notes foreign
key nulls out ownership, so no orphaned child rows survive.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresAccountRepository) Delete(context context.Context, id int64) error {
	const query = "DELETE FROM accounts WHERE id = $1"

	commandTag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_delete_failed: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// scanAccountRow hydrates one account row, converting the roles TEXT[] column.
func scanAccountRow(row pgx.Row, operation string) (*auth.Account, error) {
	account := &auth.Account{}
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
