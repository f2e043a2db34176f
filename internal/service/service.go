// Package service defines the backend-agnostic interfaces for task and auth operations.
package service

import "context"

// Service defines the interface for task backend operations.
// Commands and views never talk HTTP directly; they go through this interface.
type Service interface {
	// ListTasks returns the current user's tasks in API order.
	ListTasks(ctx context.Context) ([]Task, error)

	// GetTask returns a single task.
	// Returns ErrNotFound if the API has no matching record.
	GetTask(ctx context.Context, id int64) (Task, error)

	// CreateTask creates a task. The API assigns the ID and timestamps.
	CreateTask(ctx context.Context, title, description string) (Task, error)

	// UpdateTask sends only the fields set in patch.
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int64) error
}

// Authenticator defines the account endpoints.
type Authenticator interface {
	// Login exchanges credentials for a session token.
	Login(ctx context.Context, email, password string) (AuthResult, error)

	// Register creates an account and returns its session token.
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)

	// Logout invalidates the current token on the API side.
	Logout(ctx context.Context) error
}
