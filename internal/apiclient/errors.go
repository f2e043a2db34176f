package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Message    string
	Fields     FieldErrors

	err *googleapi.Error
}

func newError(err error, status int) *Error {
	e := &Error{StatusCode: status}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return e
	}
	e.err = gerr

	var payload struct {
		Message string      `json:"message"`
		Errors  FieldErrors `json:"errors"`
	}
	if json.Unmarshal([]byte(gerr.Body), &payload) == nil {
		e.Message = payload.Message
		e.Fields = payload.Errors
	}
	if e.Message == "" {
		e.Message = gerr.Message
	}
	return e
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

func (e *Error) Unwrap() error {
	if e.err == nil {
		return nil
	}
	return e.err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// FieldError lists the messages for one request field.
type FieldError struct {
	Field    string
	Messages []string
}

// FieldErrors keeps the field order of the response body.
type FieldErrors []FieldError

// Messages flattens all messages in field order.
func (f FieldErrors) Messages() []string {
	var out []string
	for _, fe := range f {
		out = append(out, fe.Messages...)
	}
	return out
}

// UnmarshalJSON decodes {"field": ["msg", ...]} preserving key order.
// Anything that is not an object decodes to nil.
func (f *FieldErrors) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		*f = nil
		return nil
	}

	var out FieldErrors
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err != nil {
			var one string
			if json.Unmarshal(raw, &one) != nil {
				continue
			}
			msgs = []string{one}
		}
		out = append(out, FieldError{Field: key, Messages: msgs})
	}
	*f = out
	return nil
}
