// Copyright (c) 2026 Notemark. All rights reserved.
// Author: eng@notemark.app

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notemark/notemark/internal/platform/apperr"
	"github.com/notemark/notemark/internal/platform/middleware"
	requestutil "github.com/notemark/notemark/internal/platform/request"
	"github.com/notemark/notemark/internal/platform/respond"
	"github.com/notemark/notemark/internal/platform/sec"
	"github.com/notemark/notemark/internal/platform/validate"
	"github.com/notemark/notemark/internal/users/auth"
	"github.com/notemark/notemark/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements account-management HTTP endpoints.
//
// # Scope
//
// This handler covers public registration, self-service profile access, and
// the administrator-only account and role management surface.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] for the /users resource.
//
// # Endpoints
//   - POST /        : Registers a new account (public).
//   - GET /         : Lists accounts (admin only, paginated).
//   - GET /{id}     : Fetches one account (admin or self).
//   - PATCH /{id}   : Updates profile fields (admin or self).
//   - DELETE /{id}  : Permanently removes an account (admin only).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public registration
	router.Post("/", handler.register)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequireRole(sec.RoleAdmin)).Get("/", handler.list)
		r.Get("/{id}", handler.get)
		r.Patch("/{id}", handler.update)
		r.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.delete)
	})

	return router
}

// AdminRoutes returns a [chi.Router] for the /admin/users role-management resource.
//
// # Endpoints
//   - PUT /{id}/roles           : Replaces the account's role set.
//   - POST /{id}/roles/{role}   : Grants a single role.
//   - DELETE /{id}/roles/{role} : Withdraws a single role.
//
// All routes require ROLE_ADMIN; the caller mounts this router behind the
// authentication middleware.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAdmin))
	router.Put("/{id}/roles", handler.replaceRoles)
	router.Post("/{id}/roles/{role}", handler.addRole)
	router.Delete("/{id}/roles/{role}", handler.removeRole)

	return router
}

// # Request Payloads

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type replaceRolesRequest struct {
	Roles []string `json:"roles"`
}

/*
Register handles the creation of a new account.

POST /api/v1/users

Description: Validates input, checks for email conflicts, and persists a new
account with the base role.

Request:
  - Body: registerRequest (Name, Email, Password)

Response:
  - 201: Account: Created account profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldName, input.Name).
		MinLen(auth.FieldName, input.Name, 2).
		Required(auth.FieldEmail, input.Email).
		Email(auth.FieldEmail, input.Email).
		Required(auth.FieldPassword, input.Password).
		MinLen(auth.FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.Register(request.Context(), RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account)
}

/*
List returns a paginated page of accounts.

GET /api/v1/users?page=&limit=&name=

Description: Administrator-only listing with optional case-insensitive name
filtering.

Response:
  - 200: []Account with pagination metadata
  - 403: ErrForbidden: Caller lacks ROLE_ADMIN
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	filter := ListFilter{Name: request.URL.Query().Get(auth.FieldName)}

	accounts, total, err := handler.accountService.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, accounts, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get fetches a single account by ID.

GET /api/v1/users/{id}

Description: Admins can read any account; everyone else only their own.

Response:
  - 200: Account
  - 403: ErrForbidden: Not the owner and not an admin
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	accountID, identity, err := handler.resolveTarget(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !identity.IsAdmin() && !identity.IsOwner(accountID) {
		respond.Error(writer, request, apperr.Forbidden("You may only view your own account"))
		return
	}

	account, err := handler.accountService.Get(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

/*
Update applies partial profile changes to an account.

PATCH /api/v1/users/{id}

Description: Admins can update any account; everyone else only their own.

Request:
  - Body: updateRequest (Name, Email, Password — all optional)

Response:
  - 200: Account: The updated profile
  - 403: ErrForbidden: Not the owner and not an admin
  - 409: ErrConflict: Email already in use
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	accountID, identity, err := handler.resolveTarget(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !identity.IsAdmin() && !identity.IsOwner(accountID) {
		respond.Error(writer, request, apperr.Forbidden("You may only update your own account"))
		return
	}

	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(auth.FieldName, *input.Name).MinLen(auth.FieldName, *input.Name, 2)
	}
	if input.Email != nil {
		validator.Required(auth.FieldEmail, *input.Email).Email(auth.FieldEmail, *input.Email)
	}
	if input.Password != nil {
		validator.MinLen(auth.FieldPassword, *input.Password, 8)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.Update(request.Context(), accountID, UpdateInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

/*
Delete permanently removes an account.

DELETE /api/v1/users/{id}

Description: Administrator-only. Every live refresh token for the account is
revoked; notes owned by the account become ownerless.

Response:
  - 204: No Content
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Delete(request.Context(), accountID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Role Administration Endpoints

/*
ReplaceRoles overwrites an account's full role set.

PUT /api/v1/admin/users/{id}/roles

Request:
  - Body: replaceRolesRequest (Roles)

Response:
  - 200: Account: The account with its new roles
  - 400: INVALID_ROLE: Unknown role name or empty set
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) replaceRoles(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input replaceRolesRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	account, err := handler.accountService.ReplaceRoles(request.Context(), accountID, input.Roles)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

/*
AddRole grants a single role to an account.

POST /api/v1/admin/users/{id}/roles/{role}

Response:
  - 200: Account: The account with its new roles
  - 400: INVALID_ROLE: Unknown role name
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) addRole(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.AddRole(request.Context(), accountID, requestutil.Param(request, "role"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

/*
RemoveRole withdraws a single role from an account.

DELETE /api/v1/admin/users/{id}/roles/{role}

Response:
  - 200: Account: The account with its remaining roles
  - 400: INVALID_ROLE: Unknown role or role not held
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) removeRole(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.RemoveRole(request.Context(), accountID, requestutil.Param(request, "role"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

// resolveTarget extracts the target account ID and the authenticated caller.
func (handler *Handler) resolveTarget(request *http.Request) (int64, *sec.Identity, error) {
	accountID, err := requestutil.ID(request, "id")
	if err != nil {
		return 0, nil, err
	}

	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		return 0, nil, err
	}

	return accountID, identity, nil
}
