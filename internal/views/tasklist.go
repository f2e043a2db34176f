package views

import (
	"context"
	"fmt"
	"sync"

	"todoctl/internal/service"
)

const (
	msgLoadFailed   = "Could not load tasks. Your session may have expired."
	msgToggleFailed = "Could not update the task."
	msgDeleteFailed = "Could not delete the task."
)

// TaskListView caches the user's tasks for one rendering of the list.
type TaskListView struct {
	svc service.Service

	mu      sync.Mutex
	tasks   []service.Task
	message string
}

// NewTaskListView creates an empty list view.
func NewTaskListView(svc service.Service) *TaskListView {
	return &TaskListView{svc: svc}
}

// Tasks returns the cached tasks in display order.
func (v *TaskListView) Tasks() []service.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]service.Task, len(v.tasks))
	copy(out, v.tasks)
	return out
}

// Message returns the error line from the last failed action, if any.
func (v *TaskListView) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// Load fetches the tasks and sorts them for display.
func (v *TaskListView) Load(ctx context.Context) error {
	v.setMessage("")
	tasks, err := v.svc.ListTasks(ctx)
	if err != nil {
		return v.fail(msgLoadFailed, err)
	}
	service.SortForDisplay(tasks)

	v.mu.Lock()
	v.tasks = tasks
	v.mu.Unlock()
	return nil
}

// Toggle flips the completed flag of a cached task. The flip is applied
// locally first and rolled back if the API rejects it.
func (v *TaskListView) Toggle(ctx context.Context, id int64) (service.Task, error) {
	v.setMessage("")

	v.mu.Lock()
	idx := v.indexLocked(id)
	if idx < 0 {
		v.mu.Unlock()
		return service.Task{}, v.fail(msgToggleFailed, fmt.Errorf("task %d: %w", id, service.ErrNotFound))
	}
	before := make([]service.Task, len(v.tasks))
	copy(before, v.tasks)

	task := v.tasks[idx]
	task.Completed = !task.Completed
	v.tasks[idx] = task
	service.SortForDisplay(v.tasks)
	v.mu.Unlock()

	updated, err := v.svc.UpdateTask(ctx, id, service.TaskPatch{
		Title:       &task.Title,
		Description: &task.Description,
		Completed:   &task.Completed,
	})

	v.mu.Lock()
	if err != nil {
		v.tasks = before
		v.mu.Unlock()
		return service.Task{}, v.fail(msgToggleFailed, err)
	}
	if i := v.indexLocked(id); i >= 0 {
		v.tasks[i] = updated
		service.SortForDisplay(v.tasks)
	}
	v.mu.Unlock()
	return updated, nil
}

// Delete removes a task and drops it from the cache on success.
func (v *TaskListView) Delete(ctx context.Context, id int64) error {
	v.setMessage("")
	if err := v.svc.DeleteTask(ctx, id); err != nil {
		return v.fail(msgDeleteFailed, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexLocked(id); i >= 0 {
		v.tasks = append(v.tasks[:i], v.tasks[i+1:]...)
	}
	return nil
}

func (v *TaskListView) indexLocked(id int64) int {
	for i, t := range v.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (v *TaskListView) setMessage(msg string) {
	v.mu.Lock()
	v.message = msg
	v.mu.Unlock()
}

func (v *TaskListView) fail(msg string, err error) error {
	v.setMessage(msg)
	return &Error{Message: msg, Err: err}
}
