package service

import (
	"sort"
	"time"
)

// Task represents a single task item.
type Task struct {
	ID          int64
	Title       string
	Description string // empty when absent
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch holds the fields of a partial update. Nil fields are not sent.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// IsEmpty reports whether no field is set.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Apply returns t with the set fields of p applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// User is the account owning the session.
type User struct {
	ID    int64
	Name  string
	Email string
}

// AuthResult is returned by Login and Register.
// User is nil when the API does not include a profile.
type AuthResult struct {
	Token string
	User  *User
}

// RegisterInput is the registration form payload.
type RegisterInput struct {
	Name                 string `validate:"required"`
	Email                string `validate:"required,email"`
	Password             string `validate:"required"`
	PasswordConfirmation string `validate:"required"`
}

// SortForDisplay orders tasks with incomplete ones first.
// The sort is stable, so API order is kept within each group.
func SortForDisplay(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return !tasks[i].Completed && tasks[j].Completed
	})
}
