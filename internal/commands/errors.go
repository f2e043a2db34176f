package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"todoctl/internal/exitcode"
	"todoctl/internal/service"
	"todoctl/internal/session"
	"todoctl/internal/views"
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	var (
		verr   *service.ValidationError
		apiErr *service.APIError
	)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, session.ErrInvalidToken):
		return exitcode.AuthError
	case errors.Is(err, service.ErrUnavailable):
		return exitcode.BackendError
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, views.ErrInvalidInput),
		errors.Is(err, views.ErrBusy),
		errors.As(err, &verr):
		return exitcode.UserError
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= http.StatusInternalServerError {
			return exitcode.BackendError
		}
		return exitcode.UserError
	default:
		return exitcode.BackendError
	}
}

// fail prints err as a one-line error and returns its exit code.
// View errors print their user-facing message.
func fail(errOut io.Writer, err error) int {
	msg := err.Error()
	var viewErr *views.Error
	if errors.As(err, &viewErr) {
		msg = viewErr.Message
	}
	fmt.Fprintf(errOut, "error: %s\n", msg)
	return ExitCode(err)
}
