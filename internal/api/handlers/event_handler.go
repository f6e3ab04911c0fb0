package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/taskboard-be/internal/services"
)

// EventHandler handles HTTP requests for the caller's activity log.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get recent activity/events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	// Unparseable limits fall back to the service default.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.GetRecentEvents(r.Context(), claims.UserID, limit)
	if err != nil {
		respondServiceError(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"count": len(events), "events": events})
}
