// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/constants"
	"github.com/notemark/notemark/internal/platform/ctxutil"
	"github.com/notemark/notemark/internal/platform/middleware"
	"github.com/notemark/notemark/internal/platform/sec"
)

// # Fakes

// fakeResolver serves identities from a fixed map, standing in for the
// account store.
type fakeResolver struct {
	identities map[int64]*sec.Identity
}

func (resolver *fakeResolver) ResolveIdentity(_ context.Context, accountID int64) (*sec.Identity, error) {
	identity, ok := resolver.identities[accountID]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return identity, nil
}

// capturingHandler records whether it ran and what identity it saw.
type capturingHandler struct {
	called   bool
	identity *sec.Identity
}

func (handler *capturingHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	handler.called = true
	handler.identity = middleware.GetIdentity(request.Context())
	writer.WriteHeader(http.StatusOK)
}

func newAuthzFixture(identities ...*sec.Identity) (*sec.TokenCodec, *fakeResolver) {
	codec := sec.NewTokenCodec("middleware-test-secret", "notemark.app", 15*time.Minute, 720*time.Hour)
	resolver := &fakeResolver{identities: make(map[int64]*sec.Identity)}
	for _, identity := range identities {
		resolver.identities[identity.AccountID] = identity
	}
	return codec, resolver
}

// # Authenticate

/*
TestAuthenticate_AnonymousPassthrough verifies that requests without an
Authorization header proceed unauthenticated.
*/
func TestAuthenticate_AnonymousPassthrough(t *testing.T) {
	codec, resolver := newAuthzFixture()
	next := &capturingHandler{}

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	middleware.Authenticate(codec, resolver)(next).ServeHTTP(recorder, request)

	assert.True(t, next.called)
	assert.Nil(t, next.identity)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestAuthenticate_ValidToken verifies that a live access token resolves and
injects the caller's current identity.
*/
func TestAuthenticate_ValidToken(t *testing.T) {
	codec, resolver := newAuthzFixture(&sec.Identity{
		AccountID: 42,
		Email:     "reader@example.com",
		Roles:     []sec.Role{sec.RoleUser},
	})
	next := &capturingHandler{}

	token, err := codec.IssueAccessToken(42, "reader@example.com")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()

	middleware.Authenticate(codec, resolver)(next).ServeHTTP(recorder, request)

	require.True(t, next.called)
	require.NotNil(t, next.identity)
	assert.Equal(t, int64(42), next.identity.AccountID)
	assert.Equal(t, []sec.Role{sec.RoleUser}, next.identity.Roles)
}

/*
TestAuthenticate_SchemeCaseInsensitive verifies that the bearer scheme is
matched without regard to case.
*/
func TestAuthenticate_SchemeCaseInsensitive(t *testing.T) {
	codec, resolver := newAuthzFixture(&sec.Identity{
		AccountID: 42,
		Email:     "reader@example.com",
		Roles:     []sec.Role{sec.RoleUser},
	})
	next := &capturingHandler{}

	token, err := codec.IssueAccessToken(42, "reader@example.com")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.AuthorizationHeader, "bearer "+token)
	recorder := httptest.NewRecorder()

	middleware.Authenticate(codec, resolver)(next).ServeHTTP(recorder, request)

	assert.True(t, next.called)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestAuthenticate_Rejections verifies that malformed headers, bad tokens,
expired tokens, refresh tokens, and deleted accounts are all 401s.
*/
func TestAuthenticate_Rejections(t *testing.T) {
	codec, resolver := newAuthzFixture(&sec.Identity{
		AccountID: 42,
		Roles:     []sec.Role{sec.RoleUser},
	})

	validToken, err := codec.IssueAccessToken(42, "reader@example.com")
	require.NoError(t, err)

	refreshToken, err := codec.IssueRefreshToken(42)
	require.NoError(t, err)

	// Token for an account the resolver no longer knows.
	ghostToken, err := codec.IssueAccessToken(999, "ghost@example.com")
	require.NoError(t, err)

	expiredCodec := sec.NewTokenCodec("middleware-test-secret", "notemark.app", -time.Minute, 720*time.Hour)
	expiredToken, err := expiredCodec.IssueAccessToken(42, "reader@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing_scheme", validToken},
		{"wrong_scheme", "Basic " + validToken},
		{"garbage_token", "Bearer not-a-token"},
		{"expired_token", "Bearer " + expiredToken},
		{"refresh_token_rejected", "Bearer " + refreshToken},
		{"deleted_account", "Bearer " + ghostToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &capturingHandler{}

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set("Authorization", tt.header)
			recorder := httptest.NewRecorder()

			middleware.Authenticate(codec, resolver)(next).ServeHTTP(recorder, request)

			assert.False(t, next.called)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		})
	}
}

// # Gatekeepers

/*
TestRequireAuth verifies the authenticated-only gate.
*/
func TestRequireAuth(t *testing.T) {
	// 1. Anonymous request is blocked.
	next := &capturingHandler{}
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	middleware.RequireAuth(next).ServeHTTP(recorder, request)

	assert.False(t, next.called)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// 2. Authenticated request passes.
	next = &capturingHandler{}
	identity := &sec.Identity{AccountID: 1, Roles: []sec.Role{sec.RoleUser}}
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithIdentity(request.Context(), identity))
	recorder = httptest.NewRecorder()

	middleware.RequireAuth(next).ServeHTTP(recorder, request)

	assert.True(t, next.called)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestRequireAnyRole verifies the role gate, including that it implies
authentication.
*/
func TestRequireAnyRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *sec.Identity
		required []sec.Role
		wantCode int
	}{
		{"anonymous", nil, []sec.Role{sec.RoleAdmin}, http.StatusUnauthorized},
		{"holds_role", &sec.Identity{AccountID: 1, Roles: []sec.Role{sec.RoleAdmin}}, []sec.Role{sec.RoleAdmin}, http.StatusOK},
		{"holds_one_of", &sec.Identity{AccountID: 1, Roles: []sec.Role{sec.RoleManager}}, []sec.Role{sec.RoleAdmin, sec.RoleManager}, http.StatusOK},
		{"missing_role", &sec.Identity{AccountID: 1, Roles: []sec.Role{sec.RoleUser}}, []sec.Role{sec.RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &capturingHandler{}

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.identity != nil {
				request = request.WithContext(ctxutil.WithIdentity(request.Context(), tt.identity))
			}
			recorder := httptest.NewRecorder()

			middleware.RequireAnyRole(tt.required...)(next).ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantCode, recorder.Code)
			assert.Equal(t, tt.wantCode == http.StatusOK, next.called)
		})
	}
}
