package views

import (
	"context"
	"errors"

	"todoctl/internal/service"
)

const (
	validationPrefix = "Validation error: "

	msgCreateFailed = "Could not create the task. Please try again."
	msgUpdateFailed = "Could not update the task. Please try again."

	msgEditForbidden  = "You are not allowed to view this task."
	msgEditNotFound   = "Task not found."
	msgEditLoadFailed = "Could not load the task."
)

// CreateForm creates a task.
type CreateForm struct {
	inflight
	svc service.Service
}

// NewCreateForm creates a CreateForm.
func NewCreateForm(svc service.Service) *CreateForm {
	return &CreateForm{svc: svc}
}

// Submit sends the task as typed. The API validates the fields.
func (f *CreateForm) Submit(ctx context.Context, title, description string) (service.Task, error) {
	if !f.begin() {
		return service.Task{}, ErrBusy
	}
	defer f.end()

	task, err := f.svc.CreateTask(ctx, title, description)
	if err != nil {
		return service.Task{}, &Error{Message: submitMessage(err, validationPrefix, msgCreateFailed), Err: err}
	}
	return task, nil
}

// EditForm loads a task, holds the edited fields and saves them.
type EditForm struct {
	inflight
	svc    service.Service
	id     int64
	loaded service.Task

	Title       string
	Description string
	Completed   bool
}

// NewEditForm creates an EditForm for task id.
func NewEditForm(svc service.Service, id int64) *EditForm {
	return &EditForm{svc: svc, id: id}
}

// ID returns the task being edited.
func (f *EditForm) ID() int64 { return f.id }

// Loaded returns the task as last read by Load.
func (f *EditForm) Loaded() service.Task { return f.loaded }

// Load fills the form from the API.
func (f *EditForm) Load(ctx context.Context) error {
	task, err := f.svc.GetTask(ctx, f.id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrForbidden):
			return &Error{Message: msgEditForbidden, Err: err}
		case errors.Is(err, service.ErrNotFound):
			return &Error{Message: msgEditNotFound, Err: err}
		default:
			return &Error{Message: msgEditLoadFailed, Err: err}
		}
	}
	f.loaded = task
	f.Title = task.Title
	f.Description = task.Description
	f.Completed = task.Completed
	return nil
}

// Submit saves every field of the form.
func (f *EditForm) Submit(ctx context.Context) (service.Task, error) {
	if !f.begin() {
		return service.Task{}, ErrBusy
	}
	defer f.end()

	title, description, completed := f.Title, f.Description, f.Completed
	task, err := f.svc.UpdateTask(ctx, f.id, service.TaskPatch{
		Title:       &title,
		Description: &description,
		Completed:   &completed,
	})
	if err != nil {
		return service.Task{}, &Error{Message: submitMessage(err, validationPrefix, msgUpdateFailed), Err: err}
	}
	return task, nil
}
