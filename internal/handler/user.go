package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stalker/stalker/internal/handler/dto"
	"github.com/stalker/stalker/internal/service"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /users.
//
// Creating a name that already exists returns 201 with the existing
// record rather than an error. The original API conflated "already
// exists" with "created" and clients depend on it.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid user object")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid user object")
		return
	}

	existing, err := h.svc.FindByName(r.Context(), req.Name)
	if err == nil {
		writeJSON(w, http.StatusCreated, existing)
		return
	}
	if !errors.Is(err, service.ErrUserNotFound) {
		h.handleServiceError(w, err)
		return
	}

	user, err := h.svc.Create(r.Context(), service.CreateUserInput{
		Name:   req.Name,
		Avatar: req.Avatar,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_created",
		"user_id", user.ID,
		"name", user.Name,
	)

	writeJSON(w, http.StatusCreated, user)
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /users/{id}.
//
// A key present in the body counts as "apply this value" even when the
// value is an empty string, so location and returning can be cleared.
// Empty name and avatar values are treated as omitted, matching the
// create contract where both are non-clearable.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid entity")
		return
	}

	input := service.UpdateUserInput{
		Location:  req.Location,
		Returning: req.Returning,
	}
	if req.Name != nil && *req.Name != "" {
		input.Name = req.Name
	}
	if req.Avatar != nil && *req.Avatar != "" {
		input.Avatar = req.Avatar
	}

	if input.Empty() {
		h.writeError(w, http.StatusBadRequest, "invalid entity")
		return
	}

	user, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_updated",
		"user_id", user.ID,
	)

	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_deleted", "user_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrNameRequired):
		h.writeError(w, http.StatusBadRequest, "invalid user object")
	case errors.Is(err, service.ErrNameTaken):
		h.writeError(w, http.StatusBadRequest, "name is taken")
	case errors.Is(err, service.ErrEmptyUpdate):
		h.writeError(w, http.StatusBadRequest, "invalid entity")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "an internal error occurred")
	}
}

// writeError writes an error response.
func (h *UserHandler) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}
