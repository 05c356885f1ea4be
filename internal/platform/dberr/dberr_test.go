// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/dberr"
)

/*
TestWrap verifies the classification of low-level database errors into the
application error taxonomy.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name       string
		input      error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "missing row becomes a 404",
			input:      pgx.ErrNoRows,
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unique violation becomes a 409",
			input:      &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "wrapped unique violation is still classified",
			input:      fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}),
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown errors become a 500",
			input:      errors.New("connection reset"),
			wantCode:   "INTERNAL_ERROR",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.input, "Refresh token")

			appError := apperr.As(wrapped)
			require.NotNil(t, appError)
			assert.Equal(t, tt.wantCode, appError.Code)
			assert.Equal(t, tt.wantStatus, appError.HTTPStatus)
		})
	}
}

/*
TestWrap_Nil verifies the nil passthrough.
*/
func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "Refresh token"))
}
