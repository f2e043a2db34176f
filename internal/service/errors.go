package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized means the session token was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the session may not touch the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means the API could not be reached.
	ErrUnavailable = errors.New("api unavailable")
)

// ValidationError carries the API's per-field messages.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

// FieldError lists the messages for one field.
type FieldError struct {
	Field    string
	Messages []string
}

func (e *ValidationError) Error() string {
	if msgs := e.Messages(); len(msgs) > 0 {
		return "validation failed: " + strings.Join(msgs, " ")
	}
	if e.Message != "" {
		return "validation failed: " + e.Message
	}
	return "validation failed"
}

// Messages flattens field messages in field order.
func (e *ValidationError) Messages() []string {
	var out []string
	for _, f := range e.Fields {
		out = append(out, f.Messages...)
	}
	return out
}

// APIError is any other failed API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}
