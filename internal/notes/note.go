// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

/*
Package notes implements the note-taking core of the Notemark platform.

It defines the Note entity and the ownership-aware operations around it:
creation, retrieval, listing, update, and deletion.

# Architecture

  - Entities: Note, with a nullable owner to survive account deletion.
  - Policy: Every read and write is gated by the shared access policy in the
    sec package; this package never reimplements role rules.
*/
package notes

import (
	"context"
	"time"

	"github.com/notemark/notemark/pkg/pagination"
)

// # Domain Entities

// Note represents a single note document.
//
// OwnerID is a pointer: deleting an account leaves its notes behind as
// ownerless rows, readable by admins and managers only.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	OwnerID   *int64    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldTitle   = "title"
	FieldContent = "content"
)

// MaxTitleLength bounds note titles; content is unbounded text.
const MaxTitleLength = 200

// # Repository Contract

// ListFilter narrows a note listing.
type ListFilter struct {
	// Title filters by case-insensitive substring match on the note title.
	Title string
}

// NoteRepository defines the persistence contract for notes.
type NoteRepository interface {
	/*
		Create persists a brand-new note.

		Parameters:
		  - context: context.Context
		  - note: *Note (ID is assigned on insert)

		Returns:
		  - error: Storage failures
	*/
	Create(context context.Context, note *Note) error

	/*
		FindByID retrieves a note by its unique ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Note: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*Note, error)

	/*
		List returns a page of all notes plus the total matching count.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter
		  - params: pagination.Params

		Returns:
		  - []Note: The requested page, newest first
		  - int: Total matching rows
		  - error: Retrieval failures
	*/
	List(context context.Context, filter ListFilter, params pagination.Params) ([]Note, int, error)

	/*
		ListByOwner returns a page of one account's notes plus its total.

		Parameters:
		  - context: context.Context
		  - ownerID: int64
		  - params: pagination.Params

		Returns:
		  - []Note: The requested page, newest first
		  - int: Total rows owned by the account
		  - error: Retrieval failures
	*/
	ListByOwner(context context.Context, ownerID int64, params pagination.Params) ([]Note, int, error)

	/*
		Update persists changes to a note's title and content.

		Parameters:
		  - context: context.Context
		  - note: *Note

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	Update(context context.Context, note *Note) error

	/*
		Delete permanently removes a note row.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: apperr.NotFound or execution failures
	*/
	Delete(context context.Context, id int64) error
}
