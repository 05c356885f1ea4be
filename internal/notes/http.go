// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package notes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notemark/notemark/internal/platform/middleware"
	requestutil "github.com/notemark/notemark/internal/platform/request"
	"github.com/notemark/notemark/internal/platform/respond"
	"github.com/notemark/notemark/internal/platform/sec"
	"github.com/notemark/notemark/internal/platform/validate"
	"github.com/notemark/notemark/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements note-related HTTP endpoints.
type Handler struct {
	noteService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{noteService: service}
}

// Routes returns a [chi.Router] for the /notes resource.
//
// # Endpoints
//   - GET /         : Lists every note (admin and manager only, paginated).
//   - GET /me       : Lists the caller's own notes (paginated).
//   - GET /{id}     : Fetches one note (policy-gated).
//   - POST /        : Creates a note owned by the caller.
//   - PATCH /{id}   : Updates a note (policy-gated).
//   - DELETE /{id}  : Deletes a note (policy-gated).
//
// Every route requires authentication; per-note ownership decisions happen
// in the service layer against the shared access policy.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireAuth)

	router.With(middleware.RequireAnyRole(sec.RoleAdmin, sec.RoleManager)).Get("/", handler.list)
	router.Get("/me", handler.listOwn)
	router.Get("/{id}", handler.get)
	router.Post("/", handler.create)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)

	return router
}

// # Request Payloads

type createRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

/*
Create persists a new note owned by the caller.

POST /api/v1/notes

Request:
  - Body: createRequest (Title, Content)

Response:
  - 201: Note: Created note
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 403: ErrForbidden: Viewer role cannot create
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, MaxTitleLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	note, err := handler.noteService.Create(request.Context(), identity, CreateInput{
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, note)
}

/*
List returns a paginated page of every note, optionally filtered by title.

GET /api/v1/notes?title=&page=&limit=

Response:
  - 200: []Note with pagination metadata
  - 403: ErrForbidden: Caller is neither admin nor manager
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	filter := ListFilter{Title: request.URL.Query().Get(FieldTitle)}

	allNotes, total, err := handler.noteService.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, allNotes, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
ListOwn returns a paginated page of the caller's notes.

GET /api/v1/notes/me?page=&limit=

Response:
  - 200: []Note with pagination metadata
*/
func (handler *Handler) listOwn(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	ownNotes, total, err := handler.noteService.ListOwn(request.Context(), identity, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, ownNotes, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get fetches a single note by ID.

GET /api/v1/notes/{id}

Response:
  - 200: Note
  - 403: ErrForbidden: Caller may not view this note
  - 404: ErrNotFound: Unknown note
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	noteID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	note, err := handler.noteService.Get(request.Context(), identity, noteID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, note)
}

/*
Update applies partial changes to a note.

PATCH /api/v1/notes/{id}

Request:
  - Body: updateRequest (Title, Content — both optional)

Response:
  - 200: Note: The updated note
  - 403: ErrForbidden: Caller may not modify this note
  - 404: ErrNotFound: Unknown note
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	noteID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Title != nil {
		validator.Required(FieldTitle, *input.Title).
			MaxLen(FieldTitle, *input.Title, MaxTitleLength)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	note, err := handler.noteService.Update(request.Context(), identity, noteID, UpdateInput{
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, note)
}

/*
Delete permanently removes a note.

DELETE /api/v1/notes/{id}

Response:
  - 204: No Content
  - 403: ErrForbidden: Caller may not delete this note
  - 404: ErrNotFound: Unknown note
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	noteID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.noteService.Delete(request.Context(), identity, noteID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
