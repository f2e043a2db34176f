// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"todoctl/internal/service"
)

// FakeService is an in-memory implementation of service.Service and
// service.Authenticator for testing.
type FakeService struct {
	mu     sync.RWMutex
	tasks  map[int64]service.Task
	nextID int64

	// Accounts maps email to password for Login.
	Accounts map[string]string

	// Token is returned by Login and Register.
	Token string

	// LogoutCalls counts Logout invocations.
	LogoutCalls int

	// Updates records every UpdateTask patch in call order.
	Updates []service.TaskPatch

	// Error injection for testing
	ListTasksErr  error
	GetTaskErr    error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error
	LoginErr      error
	RegisterErr   error
	LogoutErr     error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		tasks:    make(map[int64]service.Task),
		Accounts: make(map[string]string),
		Token:    "fake-token",
	}
}

// AddTask adds a task and returns its ID.
func (f *FakeService) AddTask(title string, completed bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.tasks[f.nextID] = service.Task{
		ID:        f.nextID,
		Title:     title,
		Completed: completed,
		CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	return f.nextID
}

// Task returns the stored task.
func (f *FakeService) Task(id int64) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	return t, ok
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]service.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int64) (service.Task, error) {
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	if !ok {
		return service.Task{}, fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	return t, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, title, description string) (service.Task, error) {
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := service.Task{ID: f.nextID, Title: title, Description: description}
	f.tasks[t.ID] = t
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates = append(f.Updates, patch)
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	t, ok := f.tasks[id]
	if !ok {
		return service.Task{}, fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	t = patch.Apply(t)
	f.tasks[id] = t
	return t, nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	delete(f.tasks, id)
	return nil
}

// Login implements service.Authenticator.
func (f *FakeService) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	if f.LoginErr != nil {
		return service.AuthResult{}, f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if want, ok := f.Accounts[email]; !ok || want != password {
		return service.AuthResult{}, fmt.Errorf("%w: Invalid credentials.", service.ErrUnauthorized)
	}
	return service.AuthResult{Token: f.Token}, nil
}

// Register implements service.Authenticator.
func (f *FakeService) Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error) {
	if f.RegisterErr != nil {
		return service.AuthResult{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Accounts[in.Email] = in.Password
	return service.AuthResult{
		Token: f.Token,
		User:  &service.User{ID: int64(len(f.Accounts)), Name: in.Name, Email: in.Email},
	}, nil
}

// Logout implements service.Authenticator.
func (f *FakeService) Logout(ctx context.Context) error {
	f.mu.Lock()
	f.LogoutCalls++
	f.mu.Unlock()
	return f.LogoutErr
}
