// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/sec"
	"github.com/notemark/notemark/pkg/pagination"
)

// # Service Layer

// Service orchestrates note business logic behind the shared access policy.
//
// Every operation takes the caller's resolved [*sec.Identity] and consults
// the policy predicates before touching storage, so role rules live in
// exactly one place.
type Service struct {
	noteRepository NoteRepository
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(noteRepo NoteRepository, logger *slog.Logger) *Service {
	return &Service{
		noteRepository: noteRepo,
		logger:         logger,
	}
}

// # Note Lifecycle

// CreateInput holds the data for a new note.
type CreateInput struct {
	Title   string
	Content string
}

/*
Create persists a new note owned by the caller.

Description: Viewers are read-only and may not create; every other
authenticated role creates notes it then owns.

Parameters:
  - context: context.Context
  - identity: *sec.Identity
  - input: CreateInput

Returns:
  - *Note: Created entity
  - error: Forbidden or storage failures
*/
func (service *Service) Create(context context.Context, identity *sec.Identity, input CreateInput) (*Note, error) {

	if !identity.HasAnyRole(sec.RoleUser, sec.RoleManager, sec.RoleAdmin) {
		return nil, apperr.Forbidden("Your role does not permit creating notes")
	}

	ownerID := identity.AccountID
	note := &Note{
		Title:   input.Title,
		Content: input.Content,
		OwnerID: &ownerID,
	}

	if err := service.noteRepository.Create(context, note); err != nil {
		return nil, fmt.Errorf("notes_service_create_failed: %w", err)
	}

	service.logger.Info("note_created",
		slog.Int64("note_id", note.ID),
		slog.Int64("owner_id", identity.AccountID),
	)

	return note, nil
}

/*
Get retrieves a single note the caller is allowed to see.

Description: Admins and managers read everything; everyone else only what
they own. Ownerless notes are visible to admins and managers only.

Parameters:
  - context: context.Context
  - identity: *sec.Identity
  - noteID: int64

Returns:
  - *Note: Hydrated entity
  - error: NotFound, Forbidden, or storage failures
*/
func (service *Service) Get(context context.Context, identity *sec.Identity, noteID int64) (*Note, error) {
	note, err := service.noteRepository.FindByID(context, noteID)
	if err != nil {
		return nil, err
	}

	if !sec.CanReadResource(identity, note.OwnerID) {
		return nil, apperr.Forbidden("You may not view this note")
	}

	return note, nil
}

/*
List returns a page of every note in the system, optionally filtered by a
title substring.

Description: Reserved for admins and managers; the transport layer enforces
the role gate, this method only filters and paginates.

Parameters:
  - context: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []Note: The requested page
  - int: Total matching rows
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, filter ListFilter, params pagination.Params) ([]Note, int, error) {
	allNotes, total, err := service.noteRepository.List(context, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("notes_service_list_failed: %w", err)
	}
	return allNotes, total, nil
}

/*
ListOwn returns a page of the caller's own notes.

Parameters:
  - context: context.Context
  - identity: *sec.Identity
  - params: pagination.Params

Returns:
  - []Note: The requested page
  - int: Total rows owned by the caller
  - error: Retrieval failures
*/
func (service *Service) ListOwn(context context.Context, identity *sec.Identity, params pagination.Params) ([]Note, int, error) {
	ownNotes, total, err := service.noteRepository.ListByOwner(context, identity.AccountID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("notes_service_list_own_failed: %w", err)
	}
	return ownNotes, total, nil
}

// UpdateInput defines the mutable subset of note fields.
type UpdateInput struct {
	Title   *string
	Content *string
}

/*
Update applies partial changes to a note.

Description: Admins mutate anything; every other role only what it owns.
A manager's read-all privilege does not extend to writes.

Parameters:
  - context: context.Context
  - identity: *sec.Identity
  - noteID: int64
  - input: UpdateInput

Returns:
  - *Note: The updated entity
  - error: NotFound, Forbidden, or storage failures
*/
func (service *Service) Update(context context.Context, identity *sec.Identity, noteID int64, input UpdateInput) (*Note, error) {
	note, err := service.noteRepository.FindByID(context, noteID)
	if err != nil {
		return nil, err
	}

	if !sec.CanMutateResource(identity, note.OwnerID) {
		return nil, apperr.Forbidden("You may not modify this note")
	}

	// Apply delta updates
	if input.Title != nil {
		note.Title = *input.Title
	}

	// Apply delta updates
	if input.Content != nil {
		note.Content = *input.Content
	}

	if err := service.noteRepository.Update(context, note); err != nil {
		return nil, fmt.Errorf("notes_service_update_failed: %w", err)
	}

	service.logger.Info("note_updated", slog.Int64("note_id", note.ID))

	return note, nil
}

/*
Delete permanently removes a note.

Description: Same mutation policy as Update.

Parameters:
  - context: context.Context
  - identity: *sec.Identity
  - noteID: int64

Returns:
  - error: NotFound, Forbidden, or execution failures
*/
func (service *Service) Delete(context context.Context, identity *sec.Identity, noteID int64) error {
	note, err := service.noteRepository.FindByID(context, noteID)
	if err != nil {
		return err
	}

	if !sec.CanMutateResource(identity, note.OwnerID) {
		return apperr.Forbidden("You may not delete this note")
	}

	if err := service.noteRepository.Delete(context, note.ID); err != nil {
		return fmt.Errorf("notes_service_delete_failed: %w", err)
	}

	service.logger.Info("note_deleted", slog.Int64("note_id", note.ID))

	return nil
}
