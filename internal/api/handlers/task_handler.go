package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/isdelr/taskboard-be/internal/services"
)

const taskNotFound = "Task not found"

// TaskHandler handles HTTP requests related to the caller's tasks.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// GetAll lists the caller's tasks, optionally filtered by status and priority.
func (h *TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := models.TaskFilter{
		Status:   models.TaskStatus(q.Get("status")),
		Priority: models.TaskPriority(q.Get("priority")),
	}

	tasks, err := h.service.ListTasks(r.Context(), claims.UserID, filter)
	if err != nil {
		respondServiceError(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"count": len(tasks), "tasks": tasks})
}

// Get handles the request to get a single task by its ID.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTask(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, taskNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"task": task})
}

// Create handles the request to create a new task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	var payload models.NewTask
	if err := decodeJSON(w, r, &payload); err != nil {
		respondServiceError(w, r, err, "")
		return
	}

	task, err := h.service.CreateTask(r.Context(), claims.UserID, payload)
	if err != nil {
		respondServiceError(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": "Task created successfully", "task": task})
}

// Update applies a partial update to one of the caller's tasks.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondServiceError(w, r, err, "")
		return
	}

	if err := h.service.UpdateTask(r.Context(), claims.UserID, chi.URLParam(r, "id"), patch); err != nil {
		respondServiceError(w, r, err, taskNotFound)
		return
	}
	respondMessage(w, http.StatusOK, "Task updated successfully")
}

// Delete handles the request to delete a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, taskNotFound)
		return
	}
	respondMessage(w, http.StatusOK, "Task deleted successfully")
}
