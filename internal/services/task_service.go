package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/isdelr/taskboard-be/internal/database"
	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/isdelr/taskboard-be/internal/websocket"
)

// Notifier pushes a realtime message to every live connection of one user.
type Notifier interface {
	BroadcastTo(userID string, message []byte)
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	ListTasks(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID, taskID string) (models.Task, error)
	CreateTask(ctx context.Context, ownerID string, input models.NewTask) (models.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, ownerID, taskID string) error
}

// TaskService provides owner-scoped task management. Every query it runs is
// filtered by the caller's user id.
type TaskService struct {
	db       *database.DB
	events   EventServiceProvider
	notifier Notifier
	now      func() time.Time
}

// NewTaskService creates a new TaskService. notifier may be nil.
func NewTaskService(db *database.DB, events EventServiceProvider, notifier Notifier) *TaskService {
	return &TaskService{db: db, events: events, notifier: notifier, now: time.Now}
}

var taskColumns = []string{"id", "user_id", "title", "description", "status", "priority", "created_at", "updated_at"}

// ListTasks returns the owner's tasks matching filter, newest first.
func (s *TaskService) ListTasks(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, error) {
	if err := validateStruct(filter); err != nil {
		return nil, err
	}

	where := sq.Eq{"user_id": ownerID}
	if filter.Status != "" {
		where["status"] = string(filter.Status)
	}
	if filter.Priority != "" {
		where["priority"] = string(filter.Priority)
	}

	query, args, err := s.db.Builder().
		Select(taskColumns...).
		From("tasks").
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns one task if, and only if, ownerID owns it.
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID string) (models.Task, error) {
	query, args, err := s.db.Builder().
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return models.Task{}, err
	}

	var task models.Task
	if err := s.db.GetContext(ctx, &task, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("select task %s: %w", taskID, err)
	}
	return task, nil
}

// CreateTask validates and stores a new pending task.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, input models.NewTask) (models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Priority != nil && *input.Priority == "" {
		input.Priority = nil
	}
	if err := validateStruct(input); err != nil {
		return models.Task{}, err
	}

	title := input.Title
	priority := models.PriorityMedium
	if input.Priority != nil {
		priority = *input.Priority
	}

	now := s.now().UTC()
	task := models.Task{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Title:     title,
		Status:    models.StatusPending,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Description != nil {
		task.Description = *input.Description
	}

	query, args, err := s.db.Builder().
		Insert("tasks").
		Columns(taskColumns...).
		Values(task.ID, task.UserID, task.Title, task.Description, string(task.Status), string(task.Priority), task.CreatedAt, task.UpdatedAt).
		ToSql()
	if err != nil {
		return models.Task{}, err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}

	s.afterMutation(ctx, ownerID, task.ID, models.EventTaskCreate, "info", fmt.Sprintf("Task '%s' created.", task.Title), "task.created")
	return task, nil
}

// UpdateTask applies a partial merge: nil fields keep their stored value.
// updated_at is refreshed even when the patch is empty.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, patch models.TaskPatch) error {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}
	if err := validateStruct(patch); err != nil {
		return err
	}

	update := s.db.Builder().Update("tasks")
	if patch.Title != nil {
		update = update.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		update = update.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		update = update.Set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		update = update.Set("priority", string(*patch.Priority))
	}

	query, args, err := update.
		Set("updated_at", s.now().UTC()).
		Where(sq.Eq{"id": taskID, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	} else if n == 0 {
		return ErrNotFound
	}

	s.afterMutation(ctx, ownerID, taskID, models.EventTaskUpdate, "info", describePatch(patch), "task.updated")
	return nil
}

// DeleteTask removes a task owned by ownerID.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	query, args, err := s.db.Builder().
		Delete("tasks").
		Where(sq.Eq{"id": taskID, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	} else if n == 0 {
		return ErrNotFound
	}

	s.afterMutation(ctx, ownerID, taskID, models.EventTaskDelete, "warn", "Task deleted.", "task.deleted")
	return nil
}

func (s *TaskService) afterMutation(ctx context.Context, ownerID, taskID, eventType, level, message, action string) {
	recordEvent(ctx, s.events, ownerID, eventType, level, message, &taskID)
	if s.notifier != nil {
		s.notifier.BroadcastTo(ownerID, websocket.NewTaskMessage(action, taskID))
	}
}

func describePatch(p models.TaskPatch) string {
	if p.Empty() {
		return "Task touched."
	}
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Status != nil {
		fields = append(fields, "status="+string(*p.Status))
	}
	if p.Priority != nil {
		fields = append(fields, "priority="+string(*p.Priority))
	}
	return "Task updated: " + strings.Join(fields, ", ") + "."
}
