// Package restapi implements service.Service and service.Authenticator on top
// of the task REST API.
package restapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"todoctl/internal/apiclient"
	"todoctl/internal/service"
)

// API is the subset of apiclient.Client used here.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Client implements service.Service and service.Authenticator.
type Client struct {
	api API
}

// New creates a backend client.
func New(api API) *Client {
	return &Client{api: api}
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var env envelope[[]taskResource]
	if err := c.api.Get(ctx, "tasks", &env); err != nil {
		return nil, wrapError(err)
	}
	if env.Data == nil {
		return nil, nil
	}
	result := make([]service.Task, 0, len(*env.Data))
	for _, r := range *env.Data {
		result = append(result, r.toTask())
	}
	return result, nil
}

// GetTask implements service.Service.
func (c *Client) GetTask(ctx context.Context, id int64) (service.Task, error) {
	var env envelope[taskResource]
	if err := c.api.Get(ctx, taskPath(id), &env); err != nil {
		return service.Task{}, wrapError(err)
	}
	if env.Data == nil {
		return service.Task{}, fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	return env.Data.toTask(), nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, title, description string) (service.Task, error) {
	var env envelope[taskResource]
	body := createPayload{Title: title, Description: description}
	if err := c.api.Post(ctx, "tasks", body, &env); err != nil {
		return service.Task{}, wrapError(err)
	}
	if env.Data == nil {
		return service.Task{}, fmt.Errorf("create task: empty response")
	}
	return env.Data.toTask(), nil
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	var env envelope[taskResource]
	body := updatePayload{
		Title:       patch.Title,
		Description: patch.Description,
		Completed:   patch.Completed,
	}
	if err := c.api.Put(ctx, taskPath(id), body, &env); err != nil {
		return service.Task{}, wrapError(err)
	}
	if env.Data == nil {
		return service.Task{}, fmt.Errorf("update task %d: empty response", id)
	}
	return env.Data.toTask(), nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return wrapError(c.api.Delete(ctx, taskPath(id)))
}

// Login implements service.Authenticator.
func (c *Client) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	var resp authResponse
	body := loginPayload{Email: email, Password: password}
	if err := c.api.Post(ctx, "login", body, &resp); err != nil {
		return service.AuthResult{}, wrapError(err)
	}
	return resp.toResult(), nil
}

// Register implements service.Authenticator.
func (c *Client) Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error) {
	var resp authResponse
	body := registerPayload{
		Name:                 in.Name,
		Email:                in.Email,
		Password:             in.Password,
		PasswordConfirmation: in.PasswordConfirmation,
	}
	if err := c.api.Post(ctx, "register", body, &resp); err != nil {
		return service.AuthResult{}, wrapError(err)
	}
	return resp.toResult(), nil
}

// Logout implements service.Authenticator.
func (c *Client) Logout(ctx context.Context) error {
	return wrapError(c.api.Post(ctx, "logout", nil, nil))
}

func taskPath(id int64) string {
	return fmt.Sprintf("tasks/%d", id)
}

// wrapError translates apiclient errors into service errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, apiclient.ErrTransport) {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: request timed out", service.ErrUnavailable)
		}
		return fmt.Errorf("%w: %v", service.ErrUnavailable, err)
	}

	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", service.ErrUnauthorized, orDefault(apiErr.Message, "session expired or invalid"))
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", service.ErrForbidden, orDefault(apiErr.Message, "access denied"))
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", service.ErrNotFound, orDefault(apiErr.Message, "no such record"))
	}

	if len(apiErr.Fields) > 0 {
		verr := &service.ValidationError{Message: apiErr.Message}
		for _, f := range apiErr.Fields {
			verr.Fields = append(verr.Fields, service.FieldError{Field: f.Field, Messages: f.Messages})
		}
		return verr
	}
	return &service.APIError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
