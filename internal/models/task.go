package models

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TaskPriority ranks a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work owned by a single user.
type Task struct {
	ID          string       `db:"id" json:"id"`
	UserID      string       `db:"user_id" json:"user_id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Status      TaskStatus   `db:"status" json:"status"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// TaskFilter narrows a task listing. Empty fields match everything.
type TaskFilter struct {
	Status   TaskStatus   `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// NewTask carries the fields accepted when creating a task.
type NewTask struct {
	Title       string        `json:"title" validate:"required"`
	Description *string       `json:"description"`
	Priority    *TaskPriority `json:"priority" validate:"omitnil,oneof=low medium high"`
}

// TaskPatch is a partial update; nil fields keep their stored value.
type TaskPatch struct {
	Title       *string       `json:"title" validate:"omitnil,min=1"`
	Description *string       `json:"description"`
	Status      *TaskStatus   `json:"status" validate:"omitnil,oneof=pending in-progress completed cancelled"`
	Priority    *TaskPriority `json:"priority" validate:"omitnil,oneof=low medium high"`
}

// Empty reports whether the patch changes nothing but the update timestamp.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil
}
