package services

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound covers both absent rows and rows owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUser is returned when a username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already exists")
	// ErrInvalidCredentials is deliberately the same for unknown emails and bad passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Field+": "+p.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
