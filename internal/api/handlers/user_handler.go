package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/taskboard-be/internal/services"
)

// UserHandler handles HTTP requests for user lookups.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// List returns every user's public profile. Any authenticated caller may list.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"count": len(users), "users": users})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	h.respondUser(w, r, claims.UserID)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respondUser(w, r, chi.URLParam(r, "id"))
}

func (h *UserHandler) respondUser(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}
