// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

// Package sec provides the security primitives of the platform: bearer-token
// encoding, password hashing, the role model, and the authorization policy.
//
// # Architecture
//
// This package isolates security-sensitive code from the domain logic. It is
// injected into the application layer via small interfaces (TokenCodec in
// the auth service, TokenDecoder in the middleware) and holds no mutable
// state, so a single instance is safely shared by all request workers.
package sec

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// # Token Types

// TokenType discriminates access tokens from refresh tokens inside claims.
//
// A refresh token must never be accepted where an access token is required,
// and vice versa; the `type` claim is the only thing telling them apart.
type TokenType string

const (
	// TokenTypeAccess marks short-lived tokens used for resource access.
	TokenTypeAccess TokenType = "access"

	// TokenTypeRefresh marks long-lived tokens exchanged for new pairs.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the payload embedded inside a Notemark bearer token.
//
// The wire field names (`sub`, `email`, `type`, `iat`, `exp`, `jti`) are part
// of the external token contract and must not change.
type Claims struct {
	jwt.RegisteredClaims

	Email     string    `json:"email,omitempty"`
	TokenType TokenType `json:"type"`
}

// AccountID parses the `sub` claim into the numeric account handle.
func (claims *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sec: invalid subject claim %q: %w", claims.Subject, err)
	}
	return id, nil
}

// # Token Codec

// TokenCodec signs and verifies HS256 bearer tokens with a process-wide
// symmetric secret.
//
// # Purity
//
// Issuing and decoding are pure transforms plus a wall-clock read; the codec
// never touches storage. Whether a refresh token is still trustworthy is
// decided by the refresh-token store, not here.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec creates a codec from the configured signing secret and TTLs.
func NewTokenCodec(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken creates a signed short-lived access token for an account.
func (codec *TokenCodec) IssueAccessToken(accountID int64, email string) (string, error) {
	currentTime := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(codec.accessTTL)),
		},
		Email:     email,
		TokenType: TokenTypeAccess,
	}

	return codec.sign(claims)
}

// IssueRefreshToken creates a signed long-lived refresh token for an account.
//
// Every refresh token carries a unique `jti` so that two tokens issued to the
// same account within the same second never collide on the token string.
func (codec *TokenCodec) IssueRefreshToken(accountID int64) (string, error) {
	currentTime := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    codec.issuer,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(codec.refreshTTL)),
		},
		TokenType: TokenTypeRefresh,
	}

	return codec.sign(claims)
}

// Decode verifies the signature and structure of a token string.
//
// Expiry is deliberately NOT checked here — callers decide how to treat an
// expired-but-authentic token (the auth flow logs the specific cause before
// collapsing it into a generic 401). Use [TokenCodec.IsExpired] afterwards.
func (codec *TokenCodec) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return codec.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}

// IsExpired reports whether the claims' expiry has passed.
//
// Expiry is exclusive: a token whose `exp` equals the current instant is
// already expired. A token without an `exp` claim is treated as expired.
func (codec *TokenCodec) IsExpired(claims *Claims) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.Time.After(time.Now())
}

// Validate is the defensive check: it reports whether the token decodes,
// carries a valid signature, and is unexpired. It never returns an error.
func (codec *TokenCodec) Validate(tokenString string) bool {
	claims, err := codec.Decode(tokenString)
	if err != nil {
		return false
	}
	return !codec.IsExpired(claims)
}

// AccessTTL returns the configured access-token lifetime.
func (codec *TokenCodec) AccessTTL() time.Duration { return codec.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (codec *TokenCodec) RefreshTTL() time.Duration { return codec.refreshTTL }

// sign serializes and signs a claim set with the shared secret.
func (codec *TokenCodec) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signedToken, nil
}
