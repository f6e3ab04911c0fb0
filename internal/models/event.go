package models

import "time"

// Event types recorded in the activity log.
const (
	EventUserRegister = "user.register"
	EventUserLogin    = "user.login"
	EventTaskCreate   = "task.create"
	EventTaskUpdate   = "task.update"
	EventTaskDelete   = "task.delete"
)

// Event represents a loggable action performed by a user.
type Event struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	TaskID    *string   `db:"task_id" json:"task_id,omitempty"` // Nullable for account-level events
	Type      string    `db:"type" json:"type"`
	Level     string    `db:"level" json:"level"` // "info" or "warn"
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
