// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/sec"
	"github.com/notemark/notemark/internal/users/auth"
	"github.com/notemark/notemark/pkg/pagination"
)

// # Service Layer

// Service orchestrates business logic for account lifecycle and role management.
//
// It ensures that registration, profile updates, deletion cleanup, and role
// assignments follow established business constraints.
type Service struct {
	accountRepository AccountRepository
	tokenRevoker      TokenRevoker
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	tokenRevoker TokenRevoker,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		tokenRevoker:      tokenRevoker,
		logger:            logger,
	}
}

// # Registration

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new account.

Description: Enrolls a new member with the base role. The password is hashed
before anything touches storage.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *auth.Account: Created entity
  - error: Conflict (if email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*auth.Account, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.accountRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	// Construct the new Account entity with the base role.
	account := &auth.Account{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Roles:        []sec.Role{sec.RoleUser},
	}

	// Persist the account to the database
	if err := service.accountRepository.Create(context, account); err != nil {
		return nil, err
	}

	service.logger.Info("account_registered", slog.Int64("account_id", account.ID))

	return account, nil
}

// # Profile Management

/*
Get retrieves the full identity of an account.

Parameters:
  - context: context.Context
  - accountID: int64

Returns:
  - *auth.Account: The hydrated account
  - error: Not found or execution failures
*/
func (service *Service) Get(context context.Context, accountID int64) (*auth.Account, error) {
	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

/*
List returns a page of accounts, optionally filtered by name.

Parameters:
  - context: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []auth.Account: The requested page
  - int: Total matching rows
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, filter ListFilter, params pagination.Params) ([]auth.Account, int, error) {
	accounts, total, err := service.accountRepository.List(context, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return accounts, total, nil
}

// UpdateInput defines the mutable subset of account profile fields.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

/*
Update applies a partial set of changes to an account's profile.

Description: Fetches the existing state, overrides provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - accountID: int64
  - input: UpdateInput

Returns:
  - *auth.Account: The updated account
  - error: NotFound, Conflict on duplicate email, or storage failures
*/
func (service *Service) Update(context context.Context, accountID int64, input UpdateInput) (*auth.Account, error) {

	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.Name != nil {
		account.Name = *input.Name
	}

	// Apply delta updates
	if input.Email != nil {
		account.Email = *input.Email
	}

	// A new password is hashed before it ever reaches storage.
	if input.Password != nil {
		hashedPassword, err := sec.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("account_service_update_hash_failed: %w", err)
		}
		account.PasswordHash = hashedPassword
	}

	// Persist changes
	if err := service.accountRepository.Update(context, account); err != nil {
		return nil, err
	}

	service.logger.Info("account_profile_updated", slog.Int64("account_id", accountID))

	return account, nil
}

/*
Delete permanently removes an account.

Description: Removes the row and immediately revokes every live refresh token
to force a global sign-out. Owned notes survive as ownerless rows.

Parameters:
  - context: context.Context
  - accountID: int64

Returns:
  - error: NotFound or execution failures
*/
func (service *Service) Delete(context context.Context, accountID int64) error {

	if err := service.accountRepository.Delete(context, accountID); err != nil {
		return err
	}

	// Force global revocation of tokens for the deleted account
	_ = service.tokenRevoker.RevokeAllForAccount(context, accountID)

	service.logger.Warn("account_deleted", slog.Int64("account_id", accountID))

	return nil
}

// # Role Administration

/*
ReplaceRoles overwrites an account's entire role set.

Description: Every name must belong to the role enumeration, and the
replacement set may not be empty. The set is deduplicated before storage.

Parameters:
  - context: context.Context
  - accountID: int64
  - roleNames: []string

Returns:
  - *auth.Account: The account with its new roles
  - error: InvalidRole, NotFound, or storage failures
*/
func (service *Service) ReplaceRoles(context context.Context, accountID int64, roleNames []string) (*auth.Account, error) {

	if len(roleNames) == 0 {
		return nil, apperr.InvalidRole("At least one role is required")
	}

	roles, err := parseRoleSet(roleNames)
	if err != nil {
		return nil, err
	}

	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}

	if err := service.accountRepository.UpdateRoles(context, accountID, roles); err != nil {
		return nil, fmt.Errorf("account_service_replace_roles_failed: %w", err)
	}

	account.Roles = roles

	service.logger.Info("account_roles_replaced",
		slog.Int64("account_id", accountID),
		slog.Any("roles", sec.RoleNames(roles)),
	)

	return account, nil
}

/*
AddRole grants a single role to an account.

Description: Granting a role the account already holds is a no-op success.

Parameters:
  - context: context.Context
  - accountID: int64
  - roleName: string

Returns:
  - *auth.Account: The account with its new roles
  - error: InvalidRole, NotFound, or storage failures
*/
func (service *Service) AddRole(context context.Context, accountID int64, roleName string) (*auth.Account, error) {

	role, ok := sec.ParseRole(roleName)
	if !ok {
		return nil, apperr.InvalidRole(fmt.Sprintf("Unknown role %q", roleName))
	}

	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}

	// Already granted: idempotent success
	if sec.ContainsRole(account.Roles, role) {
		return account, nil
	}

	roles := append(append([]sec.Role{}, account.Roles...), role)
	if err := service.accountRepository.UpdateRoles(context, accountID, roles); err != nil {
		return nil, fmt.Errorf("account_service_add_role_failed: %w", err)
	}

	account.Roles = roles

	service.logger.Info("account_role_added",
		slog.Int64("account_id", accountID),
		slog.String("role", string(role)),
	)

	return account, nil
}

/*
RemoveRole withdraws a single role from an account.

Description: An account's role set never goes empty. Removing the base role
while it is the only role held is rejected; removing the last non-base role
re-instates the base role in its place.

Parameters:
  - context: context.Context
  - accountID: int64
  - roleName: string

Returns:
  - *auth.Account: The account with its remaining roles
  - error: InvalidRole, NotFound, or storage failures
*/
func (service *Service) RemoveRole(context context.Context, accountID int64, roleName string) (*auth.Account, error) {

	role, ok := sec.ParseRole(roleName)
	if !ok {
		return nil, apperr.InvalidRole(fmt.Sprintf("Unknown role %q", roleName))
	}

	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}

	if !sec.ContainsRole(account.Roles, role) {
		return nil, apperr.InvalidRole(fmt.Sprintf("Account does not hold role %q", roleName))
	}

	remaining := make([]sec.Role, 0, len(account.Roles))
	for _, held := range account.Roles {
		if held != role {
			remaining = append(remaining, held)
		}
	}

	// The base role can only be withdrawn while another role remains.
	if len(remaining) == 0 && role == sec.RoleUser {
		return nil, apperr.InvalidRole("Cannot remove the base role when it is the only role held")
	}

	// Never leave an account roleless: stripping the last non-base role
	// re-instates the base role.
	if len(remaining) == 0 {
		remaining = []sec.Role{sec.RoleUser}
	}

	if err := service.accountRepository.UpdateRoles(context, accountID, remaining); err != nil {
		return nil, fmt.Errorf("account_service_remove_role_failed: %w", err)
	}

	account.Roles = remaining

	service.logger.Info("account_role_removed",
		slog.Int64("account_id", accountID),
		slog.String("role", string(role)),
	)

	return account, nil
}

// parseRoleSet validates and deduplicates a list of role wire names.
func parseRoleSet(roleNames []string) ([]sec.Role, error) {
	seen := make(map[sec.Role]bool, len(roleNames))
	roles := make([]sec.Role, 0, len(roleNames))

	for _, name := range roleNames {
		role, ok := sec.ParseRole(name)
		if !ok {
			return nil, apperr.InvalidRole(fmt.Sprintf("Unknown role %q", name))
		}
		if seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}

	return roles, nil
}
