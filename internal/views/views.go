// Package views holds the state behind each screen of the client: the login
// and registration forms, the task list and the task create and edit forms.
//
// Views talk to the API only through service.Service and
// service.Authenticator. Failures come back as *Error, whose message is the
// line shown to the user and whose wrapped error keeps the cause for exit
// code mapping.
package views

import (
	"errors"
	"strings"
	"sync/atomic"

	"todoctl/internal/service"
)

var (
	// ErrBusy is returned when a form is submitted while a previous submit
	// is still in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrInvalidInput marks input rejected before any request was sent.
	ErrInvalidInput = errors.New("invalid input")
)

// Error is a failure with a user-facing message.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Sessions records the outcome of login and registration.
type Sessions interface {
	Login(token string, user *service.User) error
	Register(token string, user *service.User) error
}

// inflight rejects overlapping submits.
type inflight struct {
	busy atomic.Bool
}

func (f *inflight) begin() bool { return f.busy.CompareAndSwap(false, true) }

func (f *inflight) end() { f.busy.Store(false) }

// InFlight reports whether a submit is running.
func (f *inflight) InFlight() bool { return f.busy.Load() }

// submitMessage renders a failed create, update or register request.
// Field messages win over the API's message, which wins over fallback.
func submitMessage(err error, validationPrefix, fallback string) string {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		if msgs := verr.Messages(); len(msgs) > 0 {
			return validationPrefix + strings.Join(msgs, " ")
		}
		if verr.Message != "" {
			return verr.Message
		}
	}
	var apiErr *service.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
