package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated matches any APIError with status 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// FieldError is one itemized validation problem reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status   int
	Message  string
	Problems []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthenticated) see through 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == 401
}

func validationMessage(problems []FieldError) string {
	msgs := make([]string, 0, len(problems))
	for _, p := range problems {
		msgs = append(msgs, p.Message)
	}
	return strings.Join(msgs, "; ")
}
