// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

/*
Package auth implements the core identity and access management (IAM) system.

It handles credential verification, token issuance, refresh-token rotation,
and password recovery (reset tokens stored in Redis).

Architecture:

  - Service: Orchestrates business logic (Login, Refresh, Logout, Recovery).
  - Repository: Abstracted interfaces for Postgres (Accounts, Refresh Tokens)
    and Redis (Reset Tokens).
  - Security: Leverages Bcrypt hashing and HMAC-signed JWTs.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/constants"
	"github.com/notemark/notemark/internal/platform/sec"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and decoding security tokens.
type TokenProvider interface {
	// IssueAccessToken creates a signed short-lived JWT for the given account.
	IssueAccessToken(accountID int64, email string) (string, error)

	// IssueRefreshToken creates a signed long-lived JWT for the given account.
	IssueRefreshToken(accountID int64) (string, error)

	// Decode verifies a token's signature and structure without checking expiry.
	Decode(tokenString string) (*sec.Claims, error)

	// IsExpired reports whether decoded claims are past their expiry.
	IsExpired(claims *sec.Claims) bool

	// AccessTTL returns the configured access-token lifetime.
	AccessTTL() time.Duration

	// RefreshTTL returns the configured refresh-token lifetime.
	RefreshTTL() time.Duration
}

// Service implements account authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, rotation,
// or login logic must be reviewed by the security team.
type Service struct {
	accountRepository      AccountRepository
	refreshTokenRepository RefreshTokenRepository
	resetTokenRepository   ResetTokenRepository
	tokenProvider          TokenProvider
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	accountRepo AccountRepository,
	refreshRepo RefreshTokenRepository,
	resetRepo ResetTokenRepository,
	tokenProv TokenProvider,
) *Service {
	return &Service{
		accountRepository:      accountRepo,
		refreshTokenRepository: refreshRepo,
		resetTokenRepository:   resetRepo,
		tokenProvider:          tokenProv,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// Session represents a successfully established token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access-token lifetime in whole seconds.
	ExpiresIn int64
	Account   *Account
}

/*
Login validates account credentials and issues a fresh token pair.

Description: Verifies identity, performs constant-time password comparison,
and persists the issued refresh token for later rotation.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Transport-ready token pair
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {

	// Look up by email. Unknown email and wrong password collapse into the
	// same generic message to prevent account enumeration; infrastructure
	// failures are not credential failures and must stay visible.
	account, err := service.accountRepository.FindByEmail(context, input.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	// Verify password hash using bcrypt's constant-time comparison to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Issue the pair and persist the refresh token. Nothing is stored before
	// both credential checks pass.
	return service.issueSession(context, account)
}

/*
Logout permanently revokes a refresh token.

Description: Ensures that a tracked refresh token can never be redeemed again.
Revoking an already-revoked token succeeds (idempotent operation); a token
that was never issued is a NotFound.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - err: NotFound or revocation failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {

	// Find the stored record by the exact token string
	stored, err := service.refreshTokenRepository.FindByToken(context, refreshToken)
	if err != nil {
		return err
	}

	// Already revoked: nothing to do, the desired end state holds.
	if stored.Revoked {
		return nil
	}

	if err := service.refreshTokenRepository.Revoke(context, stored.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Token Rotation

/*
Refresh implements the Refresh Token Rotation mechanism.

Description: Verifies the presented refresh token cryptographically and against
the store, revokes it to prevent reuse (replay attack mitigation), and issues a
fresh rotated pair in a single atomic step.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *Session: New token pair
  - err: Unauthorized, NotFound, or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*Session, error) {

	// Cryptographic gate first: a token that doesn't verify is a 401 and
	// never reaches the store.
	claims, err := service.tokenProvider.Decode(refreshToken)
	if err != nil || claims.TokenType != sec.TokenTypeRefresh {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	// Expiry is also checked before the store lookup. An expired token whose
	// row was already purged must answer exactly like one whose row survives.
	if service.tokenProvider.IsExpired(claims) {
		return nil, apperr.Unauthorized("Refresh token is revoked or expired")
	}

	// A token we never issued is a 404, distinct from a revoked or expired one.
	stored, err := service.refreshTokenRepository.FindByToken(context, refreshToken)
	if err != nil {
		return nil, err
	}

	// Revoked or past its stored lifetime: the record stays, redemption fails.
	if stored.Revoked || stored.Expired() {
		return nil, apperr.Unauthorized("Refresh token is revoked or expired")
	}

	// Fetch the account behind the token
	account, err := service.accountRepository.FindByID(context, stored.AccountID)
	if err != nil {
		return nil, apperr.Unauthorized("Account not found or suspended")
	}

	// Issue the replacement pair
	accessToken, err := service.tokenProvider.IssueAccessToken(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	newRefreshToken, err := service.tokenProvider.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	// Rotation: revoke the old record and save the new one atomically, so a
	// crash mid-rotation can never leave two live tokens (or zero).
	replacement := &RefreshToken{
		Token:     newRefreshToken,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(service.tokenProvider.RefreshTTL()),
	}

	if err := service.refreshTokenRepository.Rotate(context, stored.ID, replacement); err != nil {
		return nil, fmt.Errorf("auth_service_rotation_failed: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(service.tokenProvider.AccessTTL() / time.Second),
		Account:      account,
	}, nil
}

// # Identity Resolution

/*
ResolveIdentity loads the live account state for an authenticated request.

Description: Roles are read from the store on every call rather than trusted
from token claims, so role changes apply on the next request.

Parameters:
  - context: context.Context
  - accountID: int64

Returns:
  - *sec.Identity: The caller's current identity
  - err: NotFound or retrieval failures
*/
func (service *Service) ResolveIdentity(context context.Context, accountID int64) (*sec.Identity, error) {
	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}

	return &sec.Identity{
		AccountID: account.ID,
		Email:     account.Email,
		Roles:     account.Roles,
	}, nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a secure token and saves it to Redis.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Discovery token
  - err: Generation errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	// Look up account.
	// NOTE: We don't return NOT_FOUND if the email doesn't exist to prevent user enumeration.
	account, err := service.accountRepository.FindByEmail(context, email)
	if err != nil {
		return "", nil
	}

	// Generate reset token
	token, err := sec.GenerateSecureToken(constants.ResetTokenBytes)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	// Save to Redis
	if err := service.resetTokenRepository.Set(context, token, account.ID, constants.ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token, hashes the new password, updates the DB,
and revokes every live refresh token for security cleanup.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - err: Validation or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {

	// Retrieve the accountID associated with the reset token from Redis
	accountID, err := service.resetTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	// Hash the new password securely
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	// Update the account's password in persistent storage
	if err := service.accountRepository.UpdatePassword(context, accountID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Security Cleanup: Revoke EVERY live refresh token for this account
	_ = service.refreshTokenRepository.RevokeAllForAccount(context, accountID)

	// Delete the used token from Redis
	_ = service.resetTokenRepository.Delete(context, token)

	return nil
}

// # Internal Helpers

// issueSession creates, persists, and packages a fresh token pair for an account.
func (service *Service) issueSession(context context.Context, account *Account) (*Session, error) {

	// Generate short-lived Access Token
	accessToken, err := service.tokenProvider.IssueAccessToken(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	// Generate long-lived Refresh Token
	refreshToken, err := service.tokenProvider.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	// Persist the refresh token for later rotation or revocation
	record := &RefreshToken{
		Token:     refreshToken,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(service.tokenProvider.RefreshTTL()),
	}

	if err := service.refreshTokenRepository.Save(context, record); err != nil {
		return nil, fmt.Errorf("auth_service_token_save_failed: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(service.tokenProvider.AccessTTL() / time.Second),
		Account:      account,
	}, nil
}
