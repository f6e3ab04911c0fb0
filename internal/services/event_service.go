package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/taskboard-be/internal/database"
	"github.com/isdelr/taskboard-be/internal/models"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, userID, eventType, level, message string, taskID *string) error
	GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventService records and reads the per-user activity log.
type EventService struct {
	db  *database.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *database.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, userID, eventType, level, message string, taskID *string) error {
	query, args, err := s.db.Builder().
		Insert("events").
		Columns("id", "user_id", "task_id", "type", "level", "message", "created_at").
		Values(uuid.New().String(), userID, taskID, eventType, level, message, s.now().UTC()).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetRecentEvents retrieves the user's most recent events, newest first.
func (s *EventService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	query, args, err := s.db.Builder().
		Select("id", "user_id", "task_id", "type", "level", "message", "created_at").
		From("events").
		Where("user_id = ?", userID).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	events := []models.Event{}
	if err := s.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	return events, nil
}

// PurgeOlderThan deletes every event created before cutoff.
func (s *EventService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := s.db.Builder().
		Delete("events").
		Where("created_at < ?", cutoff.UTC()).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}
	return res.RowsAffected()
}
