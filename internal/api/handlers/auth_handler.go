package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/taskboard-be/internal/auth"
	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/isdelr/taskboard-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	service services.UserServiceProvider
	tokens  *auth.TokenManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondServiceError(w, r, err, "")
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		respondServiceError(w, r, err, "")
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, "User registered successfully", user)
}

// Login handles user authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondServiceError(w, r, err, "")
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		}
		respondServiceError(w, r, err, "")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, "Login successful", user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, message string, user models.User) {
	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondServiceError(w, r, err, "")
		return
	}
	respondJSON(w, status, AuthResponse{Message: message, Token: token, User: user})
}
