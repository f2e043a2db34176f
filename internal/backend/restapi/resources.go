package restapi

import (
	"bytes"
	"encoding/json"
	"time"

	"todoctl/internal/service"
)

// envelope is the {"data": ...} wrapper of every resource response.
type envelope[T any] struct {
	Data *T `json:"data"`
}

// taskResource mirrors the API's task resource field names.
type taskResource struct {
	ID          int64     `json:"id"`
	Title       string    `json:"titulo"`
	Description *string   `json:"descripcion"`
	Completed   bool      `json:"completada"`
	CreatedAt   timestamp `json:"creada_en"`
	UpdatedAt   timestamp `json:"actualizada_en"`
}

func (r taskResource) toTask() service.Task {
	t := service.Task{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	return t
}

type createPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updatePayload struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"is_completed,omitempty"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerPayload struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type userResource struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"`
	User        *userResource `json:"user"`
}

func (r authResponse) toResult() service.AuthResult {
	res := service.AuthResult{Token: r.AccessToken}
	if r.User != nil {
		res.User = &service.User{ID: r.User.ID, Name: r.User.Name, Email: r.User.Email}
	}
	return res
}

// timestamp accepts RFC 3339 and "2006-01-02 15:04:05".
// Null, empty and unparseable values decode to the zero time.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (ts *timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}
	ts.Time = time.Time{}
	return nil
}
