// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

// PostgreSQL implementation of the note repository.
package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/pkg/pagination"
)

// PostgresNoteRepository implements the NoteRepository interface using pgx.
type PostgresNoteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new PostgreSQL implementation of the NoteRepository.
func NewNoteRepository(pool *pgxpool.Pool) *PostgresNoteRepository {
	return &PostgresNoteRepository{pool: pool}
}

/*
Create persists a new note record into the notes table.

Parameters:
  - context: context.Context
  - note: *Note (Entity to persist)

Returns:
  - error: Storage failures
*/
func (repository *PostgresNoteRepository) Create(context context.Context, note *Note) error {
	const query = `
		INSERT INTO notes (title, content, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	now := time.Now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	err := repository.pool.QueryRow(context, query,
		note.Title,
		note.Content,
		note.OwnerID,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID)

	if err != nil {
		return fmt.Errorf("postgres_note_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a note record by its unique ID.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Note: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresNoteRepository) FindByID(context context.Context, id int64) (*Note, error) {
	const query = `
		SELECT id, title, content, owner_id, created_at, updated_at
		FROM notes
		WHERE id = $1`

	note := &Note{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.OwnerID,
		&note.CreatedAt,
		&note.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Note")
		}
		return nil, fmt.Errorf("postgres_note_repo_find_failed: %w", err)
	}

	return note, nil
}

/*
List returns one page of notes matching the filter plus the total count,
newest first.

Parameters:
  - context: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []Note: The requested page
  - int: Total matching rows
  - error: Retrieval failures
*/
func (repository *PostgresNoteRepository) List(context context.Context, filter ListFilter, params pagination.Params) ([]Note, int, error) {
	var total int
	const countQuery = `
		SELECT COUNT(*)
		FROM notes
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')`
	if err := repository.pool.QueryRow(context, countQuery, filter.Title).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_note_repo_count_failed: %w", err)
	}

	const query = `
		SELECT id, title, content, owner_id, created_at, updated_at
		FROM notes
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, filter.Title, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_note_repo_list_failed: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows, total, params.Limit)
}

/*
ListByOwner returns one page of an account's notes plus its total, newest first.

Parameters:
  - context: context.Context
  - ownerID: int64
  - params: pagination.Params

Returns:
  - []Note: The requested page
  - int: Total rows owned by the account
  - error: Retrieval failures
*/
func (repository *PostgresNoteRepository) ListByOwner(context context.Context, ownerID int64, params pagination.Params) ([]Note, int, error) {
	var total int
	const countQuery = "SELECT COUNT(*) FROM notes WHERE owner_id = $1"
	if err := repository.pool.QueryRow(context, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_note_repo_owner_count_failed: %w", err)
	}

	const query = `
		SELECT id, title, content, owner_id, created_at, updated_at
		FROM notes
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, ownerID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_note_repo_list_by_owner_failed: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows, total, params.Limit)
}

/*
Update persists changes to a note's title and content.

Parameters:
  - context: context.Context
  - note: *Note

Returns:
  - error: apperr.NotFound or update failures
*/
func (repository *PostgresNoteRepository) Update(context context.Context, note *Note) error {
	const query = `
		UPDATE notes
		SET title = $2, content = $3, updated_at = $4
		WHERE id = $1`

	note.UpdatedAt = time.Now()
	commandTag, err := repository.pool.Exec(context, query,
		note.ID,
		note.Title,
		note.Content,
		note.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_note_repo_update_failed: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Note")
	}

	return nil
}

/*
Delete permanently removes a note row.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresNoteRepository) Delete(context context.Context, id int64) error {
	const query = "DELETE FROM notes WHERE id = $1"

	commandTag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_note_repo_delete_failed: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Note")
	}

	return nil
}

// collectNotes drains a result set into a slice.
func collectNotes(rows pgx.Rows, total, capacityHint int) ([]Note, int, error) {
	collected := make([]Note, 0, capacityHint)

	for rows.Next() {
		var note Note
		err := rows.Scan(
			&note.ID,
			&note.Title,
			&note.Content,
			&note.OwnerID,
			&note.CreatedAt,
			&note.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_note_repo_scan_failed: %w", err)
		}
		collected = append(collected, note)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_note_repo_rows_failed: %w", err)
	}

	return collected, total, nil
}
