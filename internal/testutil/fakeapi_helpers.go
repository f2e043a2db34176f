package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type ctxKey int

const (
	bodyKey ctxKey = iota
	userKey
)

type authInfo struct {
	userID int64
	token  string
}

type fieldErr struct {
	field string
	msg   string
}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey, body)
}

func bodyFrom(ctx context.Context) map[string]any {
	body, _ := ctx.Value(bodyKey).(map[string]any)
	if body == nil {
		return map[string]any{}
	}
	return body
}

func withUser(ctx context.Context, userID int64, token string) context.Context {
	return context.WithValue(ctx, userKey, authInfo{userID: userID, token: token})
}

func userFrom(ctx context.Context) (int64, string) {
	info, _ := ctx.Value(userKey).(authInfo)
	return info.userID, info.token
}

func required(body map[string]any, fields ...string) []fieldErr {
	var errs []fieldErr
	for _, f := range fields {
		if s, _ := body[f].(string); s == "" {
			errs = append(errs, fieldErr{f, "The " + f + " field is required."})
		}
	}
	return errs
}

// writeValidation writes a 422 with field order preserved.
func writeValidation(w http.ResponseWriter, errs []fieldErr) {
	var order []string
	grouped := make(map[string][]string)
	for _, e := range errs {
		if _, seen := grouped[e.field]; !seen {
			order = append(order, e.field)
		}
		grouped[e.field] = append(grouped[e.field], e.msg)
	}

	buf := []byte(`{"message":`)
	msg, _ := json.Marshal(errs[0].msg)
	buf = append(buf, msg...)
	buf = append(buf, `,"errors":{`...)
	for i, field := range order {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, _ := json.Marshal(field)
		v, _ := json.Marshal(grouped[field])
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	buf = append(buf, "}}"...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_, _ = w.Write(buf)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func authJSON(token string, u *fakeUser) map[string]any {
	return map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   3600,
		"user": map[string]any{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
		},
	}
}

func taskJSON(t *FakeTask) map[string]any {
	var desc any
	if t.Description != nil {
		desc = *t.Description
	}
	return map[string]any{
		"id":             t.ID,
		"titulo":         t.Title,
		"descripcion":    desc,
		"completada":     t.Completed,
		"creada_en":      t.CreatedAt.Format(time.RFC3339Nano),
		"actualizada_en": t.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
