// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

/*
Package auth implements the account identity and session management layer.

It defines the core domain entities (Account, RefreshToken) and logic for
authentication, token rotation, and credential recovery.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to account identity.
*/
package auth

import (
	"time"

	"github.com/notemark/notemark/internal/platform/sec"
)

// # Domain Entities

// Account represents a registered member of the Notemark platform.
type Account struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	Roles        []sec.Role `json:"roles"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RefreshToken represents one issued refresh token and its revocation state.
//
// The signed token string is stored verbatim and looked up by equality; the
// Revoked flag (not row deletion) is what invalidates it, so a replayed token
// can still be told apart from one that never existed.
type RefreshToken struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"` // The signed token string. Omitted for security.
	AccountID int64     `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the stored token's lifetime has passed.
func (token *RefreshToken) Expired() bool {
	return !token.ExpiresAt.After(time.Now())
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldToken        = "token"
	FieldRefreshToken = "refreshToken"
	FieldAccessToken  = "accessToken"
	FieldTokenType    = "tokenType"
	FieldExpiresIn    = "expiresIn"
	FieldUser         = "user"
	FieldMessage      = "message"
)
