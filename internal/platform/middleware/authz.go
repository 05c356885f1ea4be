// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

// Package middleware provides the HTTP middleware chain for the Notemark API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/constants"
	"github.com/notemark/notemark/internal/platform/ctxutil"
	"github.com/notemark/notemark/internal/platform/respond"
	"github.com/notemark/notemark/internal/platform/sec"
)

// TokenDecoder defines the token operations needed by the middleware.
//
// # Why an interface?
//
// Defining TokenDecoder here decouples the middleware from the [sec.TokenCodec]
// implementation, allowing us to easily inject mocks during unit testing.
type TokenDecoder interface {
	Decode(tokenString string) (*sec.Claims, error)
	IsExpired(claims *sec.Claims) bool
}

// IdentityResolver loads the current account state behind a set of claims.
//
// Roles come from the store, not the token, so revoking a role or deleting an
// account takes effect on the next request rather than at token expiry.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accountID int64) (*sec.Identity, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, decode and verify the JWT via [TokenDecoder]. The token must
//     be an unexpired access token; refresh tokens are rejected here.
//  4. Resolve the live account via [IdentityResolver] and inject the
//     [*sec.Identity] into the request context for downstream use.
//
// # Parameters
//   - decoder: The TokenDecoder instance.
//   - resolver: The IdentityResolver instance.
//
// # Returns
//   - An [http.Handler] middleware.
func Authenticate(decoder TokenDecoder, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.AuthorizationHeader)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], strings.TrimSpace(constants.BearerPrefix)) {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenStr := parts[1]
			claims, err := decoder.Decode(tokenStr)
			if err != nil || decoder.IsExpired(claims) || claims.TokenType != sec.TokenTypeAccess {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			accountID, err := claims.AccountID()
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Identity Resolution ────────────────────────────────────────
			identity, err := resolver.ResolveIdentity(request.Context(), accountID)
			if err != nil {
				// A deleted account holding a live token is still a 401.
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.Identity] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity := GetIdentity(request.Context())
		if identity == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the caller doesn't hold the required role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically implies
// [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if [*sec.Identity] exists in context (implies AuthN).
//  2. Check role membership via [sec.Identity.HasRole].
//  3. If insufficient, abort with HTTP 403 Forbidden.
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

// RequireAnyRole blocks requests unless the caller holds at least one of the
// given roles. Like [RequireRole] it implies [RequireAuth].
func RequireAnyRole(roles ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := GetIdentity(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !identity.HasAnyRole(roles...) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// GetIdentity retrieves the [*sec.Identity] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.Identity] if the caller is authenticated.
//   - nil if the caller is anonymous.
func GetIdentity(ctx context.Context) *sec.Identity {
	return ctxutil.GetIdentity(ctx)
}
