// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package account_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/sec"
	"github.com/notemark/notemark/internal/users/account"
	"github.com/notemark/notemark/internal/users/auth"
	"github.com/notemark/notemark/pkg/pagination"
)

// # In-Memory Fakes

type fakeAccountRepository struct {
	nextID   int64
	accounts map[int64]*auth.Account
}

func newFakeAccountRepository(accounts ...*auth.Account) *fakeAccountRepository {
	repository := &fakeAccountRepository{accounts: make(map[int64]*auth.Account)}
	for _, entry := range accounts {
		repository.accounts[entry.ID] = entry
		if entry.ID > repository.nextID {
			repository.nextID = entry.ID
		}
	}
	return repository
}

func (repository *fakeAccountRepository) Create(_ context.Context, entry *auth.Account) error {
	for _, existing := range repository.accounts {
		if existing.Email == entry.Email {
			return apperr.Conflict("Account already exists")
		}
	}
	repository.nextID++
	entry.ID = repository.nextID
	repository.accounts[entry.ID] = entry
	return nil
}

func (repository *fakeAccountRepository) FindByID(_ context.Context, id int64) (*auth.Account, error) {
	entry, ok := repository.accounts[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return entry, nil
}

func (repository *fakeAccountRepository) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	for _, entry := range repository.accounts {
		if entry.Email == email {
			return entry, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repository *fakeAccountRepository) List(_ context.Context, _ account.ListFilter, _ pagination.Params) ([]auth.Account, int, error) {
	page := make([]auth.Account, 0, len(repository.accounts))
	for _, entry := range repository.accounts {
		page = append(page, *entry)
	}
	return page, len(page), nil
}

func (repository *fakeAccountRepository) Update(_ context.Context, entry *auth.Account) error {
	if _, ok := repository.accounts[entry.ID]; !ok {
		return apperr.NotFound("Account")
	}
	repository.accounts[entry.ID] = entry
	return nil
}

func (repository *fakeAccountRepository) UpdateRoles(_ context.Context, accountID int64, roles []sec.Role) error {
	entry, ok := repository.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	entry.Roles = roles
	return nil
}

func (repository *fakeAccountRepository) Delete(_ context.Context, id int64) error {
	if _, ok := repository.accounts[id]; !ok {
		return apperr.NotFound("Account")
	}
	delete(repository.accounts, id)
	return nil
}

type fakeTokenRevoker struct {
	revokedAccounts []int64
}

func (revoker *fakeTokenRevoker) RevokeAllForAccount(_ context.Context, accountID int64) error {
	revoker.revokedAccounts = append(revoker.revokedAccounts, accountID)
	return nil
}

// # Test Fixture

func newServiceFixture(accounts ...*auth.Account) (*account.Service, *fakeAccountRepository, *fakeTokenRevoker) {
	repository := newFakeAccountRepository(accounts...)
	revoker := &fakeTokenRevoker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return account.NewService(repository, revoker, logger), repository, revoker
}

func existingAccount(id int64, email string, roles ...sec.Role) *auth.Account {
	if len(roles) == 0 {
		roles = []sec.Role{sec.RoleUser}
	}
	return &auth.Account{
		ID:           id,
		Name:         "Existing Member",
		Email:        email,
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhash",
		Roles:        roles,
	}
}

// # Registration

/*
TestService_Register verifies enrollment with the base role and a hashed
password.
*/
func TestService_Register(t *testing.T) {
	service, repository, _ := newServiceFixture()

	created, err := service.Register(context.Background(), account.RegisterInput{
		Name:     "New Member",
		Email:    "new@example.com",
		Password: "plain-password",
	})
	require.NoError(t, err)

	// 1. The account was persisted with an assigned ID and the base role.
	assert.NotZero(t, created.ID)
	assert.Equal(t, []sec.Role{sec.RoleUser}, created.Roles)

	// 2. The password is stored hashed, never plain.
	stored, err := repository.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "plain-password", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("plain-password", stored.PasswordHash))
}

/*
TestService_Register_DuplicateEmail verifies the Conflict on an already
registered email.
*/
func TestService_Register_DuplicateEmail(t *testing.T) {
	service, _, _ := newServiceFixture(existingAccount(1, "taken@example.com"))

	_, err := service.Register(context.Background(), account.RegisterInput{
		Name:     "Impostor",
		Email:    "taken@example.com",
		Password: "whatever",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusConflict, appError.HTTPStatus)
}

// # Profile Management

/*
TestService_Update verifies partial profile updates.
*/
func TestService_Update(t *testing.T) {
	service, _, _ := newServiceFixture(existingAccount(1, "member@example.com"))

	newName := "Renamed Member"
	updated, err := service.Update(context.Background(), 1, account.UpdateInput{Name: &newName})
	require.NoError(t, err)

	// Only the provided field changes.
	assert.Equal(t, "Renamed Member", updated.Name)
	assert.Equal(t, "member@example.com", updated.Email)

	// A password change is hashed before storage.
	newPassword := "brand-new-password"
	updated, err = service.Update(context.Background(), 1, account.UpdateInput{Password: &newPassword})
	require.NoError(t, err)
	assert.NotEqual(t, newPassword, updated.PasswordHash)
	assert.True(t, sec.CheckPasswordHash(newPassword, updated.PasswordHash))
}

/*
TestService_Delete verifies that deletion forces a global sign-out.
*/
func TestService_Delete(t *testing.T) {
	service, repository, revoker := newServiceFixture(existingAccount(1, "member@example.com"))

	require.NoError(t, service.Delete(context.Background(), 1))

	// 1. The row is gone.
	_, err := repository.FindByID(context.Background(), 1)
	assert.Error(t, err)

	// 2. Every live refresh token was revoked.
	assert.Equal(t, []int64{1}, revoker.revokedAccounts)

	// 3. Deleting an unknown account is a NotFound.
	err = service.Delete(context.Background(), 999)
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

// # Role Administration

/*
TestService_ReplaceRoles verifies validation, deduplication, and persistence
of full role-set replacement.
*/
func TestService_ReplaceRoles(t *testing.T) {
	service, repository, _ := newServiceFixture(existingAccount(1, "member@example.com"))

	// 1. A valid set replaces the old one, deduplicated.
	updated, err := service.ReplaceRoles(context.Background(), 1, []string{"ROLE_MANAGER", "ROLE_VIEWER", "ROLE_MANAGER"})
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleManager, sec.RoleViewer}, updated.Roles)

	stored, err := repository.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleManager, sec.RoleViewer}, stored.Roles)

	// 2. An empty set is rejected; the account keeps its roles.
	_, err = service.ReplaceRoles(context.Background(), 1, nil)
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "INVALID_ROLE", appError.Code)

	// 3. A set containing an unknown name is rejected atomically.
	_, err = service.ReplaceRoles(context.Background(), 1, []string{"ROLE_USER", "ROLE_WIZARD"})
	require.Error(t, err)
	appError = apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "INVALID_ROLE", appError.Code)

	stored, err = repository.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleManager, sec.RoleViewer}, stored.Roles)
}

/*
TestService_AddRole verifies granting, idempotency, and unknown-role
rejection.
*/
func TestService_AddRole(t *testing.T) {
	service, _, _ := newServiceFixture(existingAccount(1, "member@example.com", sec.RoleUser))

	// 1. Granting a new role appends it.
	updated, err := service.AddRole(context.Background(), 1, "ROLE_MANAGER")
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleUser, sec.RoleManager}, updated.Roles)

	// 2. Granting it again is a no-op success.
	updated, err = service.AddRole(context.Background(), 1, "ROLE_MANAGER")
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleUser, sec.RoleManager}, updated.Roles)

	// 3. Unknown names never reach storage.
	_, err = service.AddRole(context.Background(), 1, "ROLE_WIZARD")
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "INVALID_ROLE", appError.Code)
}

/*
TestService_RemoveRole verifies withdrawal, the not-held rejection, and that
the base role cannot be stripped when it stands alone.
*/
func TestService_RemoveRole(t *testing.T) {
	service, repository, _ := newServiceFixture(existingAccount(1, "member@example.com", sec.RoleUser, sec.RoleManager))

	// 1. Removing a held role leaves the rest.
	updated, err := service.RemoveRole(context.Background(), 1, "ROLE_MANAGER")
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleUser}, updated.Roles)

	// 2. Removing a role the account does not hold is rejected.
	_, err = service.RemoveRole(context.Background(), 1, "ROLE_ADMIN")
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "INVALID_ROLE", appError.Code)

	// 3. The base role cannot be removed while it is the only role held.
	_, err = service.RemoveRole(context.Background(), 1, "ROLE_USER")
	require.Error(t, err)
	appError = apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "INVALID_ROLE", appError.Code)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)

	stored, err := repository.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleUser}, stored.Roles)
}

/*
TestService_RemoveRole_LastNonBaseRole verifies that stripping the last
non-base role re-instates the base role instead of leaving the set empty.
*/
func TestService_RemoveRole_LastNonBaseRole(t *testing.T) {
	service, repository, _ := newServiceFixture(existingAccount(1, "manager@example.com", sec.RoleManager))

	updated, err := service.RemoveRole(context.Background(), 1, "ROLE_MANAGER")
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleUser}, updated.Roles)

	stored, err := repository.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleUser}, stored.Roles)
}
