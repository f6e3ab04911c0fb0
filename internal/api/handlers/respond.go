package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/taskboard-be/internal/auth"
	"github.com/isdelr/taskboard-be/internal/services"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// decodeJSON reads a single JSON object from the request body. An empty body
// decodes as an empty object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errBadBody
	}
	return nil
}

// respondServiceError maps the service error taxonomy onto HTTP responses.
// notFound is the message used for services.ErrNotFound.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Problems})
	case errors.Is(err, errBadBody):
		respondError(w, http.StatusBadRequest, "Invalid request body")
	case errors.Is(err, services.ErrDuplicateUser):
		respondError(w, http.StatusBadRequest, "Username or email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	default:
		event := log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path)
		if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
			event = event.Str("user_id", claims.UserID)
		}
		event.Msg("Request failed")
		respondError(w, http.StatusInternalServerError, "Server error")
	}
}

// mustClaims returns the caller's identity. Routes using it sit behind
// auth.Middleware, so a miss is a wiring bug and answers 500.
func mustClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Could not retrieve user claims from context")
		respondError(w, http.StatusInternalServerError, "Server error")
		return nil, false
	}
	return claims, true
}
