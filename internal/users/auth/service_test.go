// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/sec"
	"github.com/notemark/notemark/internal/users/auth"
)

// # In-Memory Fakes

type fakeAccountRepository struct {
	accounts map[int64]*auth.Account

	// findByEmailErr, when set, simulates a storage outage on lookup.
	findByEmailErr error
}

func newFakeAccountRepository(accounts ...*auth.Account) *fakeAccountRepository {
	repository := &fakeAccountRepository{accounts: make(map[int64]*auth.Account)}
	for _, account := range accounts {
		repository.accounts[account.ID] = account
	}
	return repository
}

func (repository *fakeAccountRepository) FindByID(_ context.Context, id int64) (*auth.Account, error) {
	account, ok := repository.accounts[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return account, nil
}

func (repository *fakeAccountRepository) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	if repository.findByEmailErr != nil {
		return nil, repository.findByEmailErr
	}
	for _, account := range repository.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repository *fakeAccountRepository) UpdatePassword(_ context.Context, accountID int64, newHash string) error {
	account, ok := repository.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.PasswordHash = newHash
	return nil
}

type fakeRefreshTokenRepository struct {
	nextID int64
	byID   map[int64]*auth.RefreshToken
}

func newFakeRefreshTokenRepository() *fakeRefreshTokenRepository {
	return &fakeRefreshTokenRepository{byID: make(map[int64]*auth.RefreshToken)}
}

func (repository *fakeRefreshTokenRepository) Save(_ context.Context, token *auth.RefreshToken) error {
	// The token column is UNIQUE; a duplicate insert is a Conflict.
	for _, stored := range repository.byID {
		if stored.Token == token.Token {
			return apperr.Conflict("Refresh token already exists")
		}
	}

	repository.nextID++
	token.ID = repository.nextID
	token.CreatedAt = time.Now()
	repository.byID[token.ID] = token
	return nil
}

func (repository *fakeRefreshTokenRepository) FindByToken(_ context.Context, tokenString string) (*auth.RefreshToken, error) {
	for _, stored := range repository.byID {
		if stored.Token == tokenString {
			return stored, nil
		}
	}
	return nil, apperr.NotFound("Refresh token")
}

func (repository *fakeRefreshTokenRepository) ListByAccount(_ context.Context, accountID int64) ([]auth.RefreshToken, error) {
	tokens := make([]auth.RefreshToken, 0)
	for _, stored := range repository.byID {
		if stored.AccountID == accountID {
			tokens = append(tokens, *stored)
		}
	}
	return tokens, nil
}

func (repository *fakeRefreshTokenRepository) Revoke(_ context.Context, tokenID int64) error {
	stored, ok := repository.byID[tokenID]
	if !ok {
		return apperr.NotFound("Refresh token")
	}
	stored.Revoked = true
	return nil
}

func (repository *fakeRefreshTokenRepository) RevokeAllForAccount(_ context.Context, accountID int64) error {
	for _, stored := range repository.byID {
		if stored.AccountID == accountID {
			stored.Revoked = true
		}
	}
	return nil
}

func (repository *fakeRefreshTokenRepository) Rotate(context context.Context, oldTokenID int64, newToken *auth.RefreshToken) error {
	if err := repository.Revoke(context, oldTokenID); err != nil {
		return err
	}
	return repository.Save(context, newToken)
}

func (repository *fakeRefreshTokenRepository) DeleteExpired(_ context.Context) error {
	for id, stored := range repository.byID {
		if stored.Expired() {
			delete(repository.byID, id)
		}
	}
	return nil
}

func (repository *fakeRefreshTokenRepository) liveCountFor(accountID int64) int {
	count := 0
	for _, stored := range repository.byID {
		if stored.AccountID == accountID && !stored.Revoked {
			count++
		}
	}
	return count
}

type fakeResetTokenRepository struct {
	entries map[string]int64
}

func newFakeResetTokenRepository() *fakeResetTokenRepository {
	return &fakeResetTokenRepository{entries: make(map[string]int64)}
}

func (repository *fakeResetTokenRepository) Set(_ context.Context, token string, accountID int64, _ time.Duration) error {
	repository.entries[token] = accountID
	return nil
}

func (repository *fakeResetTokenRepository) Get(_ context.Context, token string) (int64, error) {
	accountID, ok := repository.entries[token]
	if !ok {
		return 0, apperr.NotFound("Reset token")
	}
	return accountID, nil
}

func (repository *fakeResetTokenRepository) Delete(_ context.Context, token string) error {
	delete(repository.entries, token)
	return nil
}

// # Test Fixture

type authFixture struct {
	service     *auth.Service
	accounts    *fakeAccountRepository
	refreshRepo *fakeRefreshTokenRepository
	resetRepo   *fakeResetTokenRepository
	codec       *sec.TokenCodec
}

func newAuthFixture(t *testing.T, accounts ...*auth.Account) *authFixture {
	t.Helper()

	codec := sec.NewTokenCodec("service-test-secret", "notemark.app", 15*time.Minute, 720*time.Hour)
	accountRepo := newFakeAccountRepository(accounts...)
	refreshRepo := newFakeRefreshTokenRepository()
	resetRepo := newFakeResetTokenRepository()

	return &authFixture{
		service:     auth.NewService(accountRepo, refreshRepo, resetRepo, codec),
		accounts:    accountRepo,
		refreshRepo: refreshRepo,
		resetRepo:   resetRepo,
		codec:       codec,
	}
}

func testAccount(t *testing.T, id int64, email, password string, roles ...sec.Role) *auth.Account {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	if len(roles) == 0 {
		roles = []sec.Role{sec.RoleUser}
	}

	return &auth.Account{
		ID:           id,
		Name:         "Test Account",
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	}
}

// # Login

/*
TestService_Login_Success verifies that valid credentials yield a persisted
token pair with correct claims.
*/
func TestService_Login_Success(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	// 1. Both tokens are present and the access TTL is reported in seconds.
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, int64(15*60), session.ExpiresIn)
	require.NotNil(t, session.Account)
	assert.Equal(t, int64(1), session.Account.ID)

	// 2. The access token carries the right claims.
	claims, err := fixture.codec.Decode(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sec.TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "owner@example.com", claims.Email)

	// 3. The refresh token was persisted for later rotation.
	stored, err := fixture.refreshRepo.FindByToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.AccountID)
	assert.False(t, stored.Revoked)
}

/*
TestService_Login_InvalidCredentials verifies that unknown emails and wrong
passwords collapse into the same generic 401 and persist nothing.
*/
func TestService_Login_InvalidCredentials(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	tests := []struct {
		name  string
		input auth.LoginInput
	}{
		{"unknown_email", auth.LoginInput{Email: "ghost@example.com", Password: "s3cret-password"}},
		{"wrong_password", auth.LoginInput{Email: "owner@example.com", Password: "wrong"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture.service.Login(context.Background(), tt.input)
			require.Error(t, err)

			appError := apperr.As(err)
			require.NotNil(t, appError)

			// Both failures are indistinguishable to the caller.
			assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
			assert.Equal(t, "Invalid login credentials", appError.Message)
		})
	}

	// No refresh token is stored before both credential checks pass.
	assert.Equal(t, 0, fixture.refreshRepo.liveCountFor(1))
}

/*
TestService_Login_StorageFailure verifies that a storage outage during the
email lookup surfaces as an internal failure, never as a credentials 401.
*/
func TestService_Login_StorageFailure(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))
	fixture.accounts.findByEmailErr = errors.New("connection refused")

	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "s3cret-password",
	})
	require.Error(t, err)

	// The outage is propagated, not disguised as bad credentials.
	assert.Nil(t, apperr.As(err))
	assert.ErrorContains(t, err, "connection refused")
}

// # Logout

/*
TestService_Logout verifies revocation, idempotency, and the never-issued
case.
*/
func TestService_Logout(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	// 1. First logout revokes the stored token.
	require.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))
	stored, err := fixture.refreshRepo.FindByToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)

	// 2. Logging out again succeeds: the desired end state already holds.
	assert.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))

	// 3. A token that was never issued is a NotFound, not a silent success.
	err = fixture.service.Logout(context.Background(), "never-issued-token")
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

// # Refresh & Rotation

/*
TestService_Refresh_RotatesPair verifies the happy path: the old token is
revoked and a new live pair replaces it.
*/
func TestService_Refresh_RotatesPair(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	rotated, err := fixture.service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	// 1. A genuinely new pair was issued.
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)
	assert.NotEmpty(t, rotated.AccessToken)

	// 2. The old token is revoked, the new one is live. Exactly one remains.
	oldStored, err := fixture.refreshRepo.FindByToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.True(t, oldStored.Revoked)
	assert.Equal(t, 1, fixture.refreshRepo.liveCountFor(1))
}

/*
TestService_Refresh_ReplayRejected verifies that redeeming an already-rotated
token fails with a 401 (replay attack mitigation).
*/
func TestService_Refresh_ReplayRejected(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	_, err = fixture.service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	// Replaying the consumed token must fail.
	_, err = fixture.service.Refresh(context.Background(), session.RefreshToken)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
	assert.Equal(t, "Refresh token is revoked or expired", appError.Message)
}

/*
TestService_Refresh_AfterLogout verifies that a revoked token can never be
redeemed.
*/
func TestService_Refresh_AfterLogout(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))

	_, err = fixture.service.Refresh(context.Background(), session.RefreshToken)
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
}

/*
TestService_Refresh_WrongTokenType verifies that an access token presented to
the refresh endpoint is rejected before any store lookup.
*/
func TestService_Refresh_WrongTokenType(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	_, err = fixture.service.Refresh(context.Background(), session.AccessToken)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
	assert.Equal(t, "Invalid refresh token", appError.Message)
}

/*
TestService_Refresh_NeverIssued verifies that a cryptographically valid token
with no stored record is a 404, distinct from a revoked one.
*/
func TestService_Refresh_NeverIssued(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	// Sign a refresh token with the right secret but never persist it.
	orphanToken, err := fixture.codec.IssueRefreshToken(1)
	require.NoError(t, err)

	_, err = fixture.service.Refresh(context.Background(), orphanToken)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

/*
TestService_Refresh_ExpiredClaims verifies that an expired token is a 401
before the store is consulted, so a purged row answers exactly like a kept one.
*/
func TestService_Refresh_ExpiredClaims(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	// Sign an already-expired refresh token with the right secret. No stored
	// record exists for it, mimicking a token whose row was purged.
	expiredCodec := sec.NewTokenCodec("service-test-secret", "notemark.app", 15*time.Minute, -time.Minute)
	expiredToken, err := expiredCodec.IssueRefreshToken(1)
	require.NoError(t, err)

	_, err = fixture.service.Refresh(context.Background(), expiredToken)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
	assert.Equal(t, "Refresh token is revoked or expired", appError.Message)
}

/*
TestService_Refresh_GarbageToken verifies that unverifiable strings are a 401.
*/
func TestService_Refresh_GarbageToken(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	_, err := fixture.service.Refresh(context.Background(), "not-a-token")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
}

/*
TestRefreshTokenRepository_DuplicateToken verifies that inserting the same
token string twice surfaces as a Conflict, matching the UNIQUE column.
*/
func TestRefreshTokenRepository_DuplicateToken(t *testing.T) {
	repository := newFakeRefreshTokenRepository()

	first := &auth.RefreshToken{Token: "duplicate-token", AccountID: 1, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repository.Save(context.Background(), first))

	second := &auth.RefreshToken{Token: "duplicate-token", AccountID: 1, ExpiresAt: time.Now().Add(time.Hour)}
	err := repository.Save(context.Background(), second)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusConflict, appError.HTTPStatus)
}

// # Identity Resolution

/*
TestService_ResolveIdentity verifies that identities are loaded fresh from
the store, so role changes apply immediately.
*/
func TestService_ResolveIdentity(t *testing.T) {
	account := testAccount(t, 1, "owner@example.com", "s3cret-password", sec.RoleUser)
	fixture := newAuthFixture(t, account)

	identity, err := fixture.service.ResolveIdentity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleUser}, identity.Roles)

	// A role change in the store is visible on the very next resolution.
	account.Roles = []sec.Role{sec.RoleAdmin}

	identity, err = fixture.service.ResolveIdentity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []sec.Role{sec.RoleAdmin}, identity.Roles)

	// A deleted account no longer resolves.
	_, err = fixture.service.ResolveIdentity(context.Background(), 999)
	assert.Error(t, err)
}

// # Password Recovery

/*
TestService_PasswordReset_FullFlow verifies the forgot/reset cycle: the new
password works, the old one does not, every live session is revoked, and the
token is single-use.
*/
func TestService_PasswordReset_FullFlow(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "old-password"))

	// Establish a live session that the reset must invalidate.
	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "old-password",
	})
	require.NoError(t, err)

	resetToken, err := fixture.service.RequestPasswordReset(context.Background(), "owner@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)

	require.NoError(t, fixture.service.ResetPassword(context.Background(), resetToken, "new-password"))

	// 1. Old credentials are dead, new ones work.
	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "old-password",
	})
	assert.Error(t, err)

	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "owner@example.com",
		Password: "new-password",
	})
	assert.NoError(t, err)

	// 2. The pre-reset refresh token was revoked.
	stored, err := fixture.refreshRepo.FindByToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)

	// 3. The reset token is single-use.
	err = fixture.service.ResetPassword(context.Background(), resetToken, "another-password")
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

/*
TestService_RequestPasswordReset_UnknownEmail verifies the silent success for
unknown emails (no account enumeration).
*/
func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	fixture := newAuthFixture(t, testAccount(t, 1, "owner@example.com", "s3cret-password"))

	token, err := fixture.service.RequestPasswordReset(context.Background(), "ghost@example.com")

	assert.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, fixture.resetRepo.entries)
}
