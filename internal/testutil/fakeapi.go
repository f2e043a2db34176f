package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// FakeAPISecret signs the tokens issued by FakeAPI.
const FakeAPISecret = "fake-api-signing-secret"

// FakeTask is a task as stored by FakeAPI.
type FakeTask struct {
	ID          int64
	Owner       int64
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type fakeUser struct {
	ID       int64
	Name     string
	Email    string
	Password string
}

// RecordedRequest is one request seen by FakeAPI.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          map[string]any
}

type injectedFailure struct {
	status int
	body   string
}

// FakeAPI is an httptest server implementing the task REST API.
type FakeAPI struct {
	srv *httptest.Server

	mu       sync.Mutex
	users    map[string]*fakeUser // by email
	tokens   map[string]int64     // token -> user ID
	tasks    map[int64]*FakeTask
	nextUser int64
	nextTask int64
	issued   int
	failures []injectedFailure
	requests []RecordedRequest
}

// NewFakeAPI starts a FakeAPI that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		users:  make(map[string]*fakeUser),
		tokens: make(map[string]int64),
		tasks:  make(map[int64]*FakeTask),
	}

	r := chi.NewRouter()
	r.Use(f.record, f.injectFailures)
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", f.login)
		r.Post("/register", f.register)
		r.Group(func(r chi.Router) {
			r.Use(f.authenticate)
			r.Post("/logout", f.logout)
			r.Get("/tasks", f.listTasks)
			r.Post("/tasks", f.createTask)
			r.Get("/tasks/{id}", f.getTask)
			r.Put("/tasks/{id}", f.updateTask)
			r.Delete("/tasks/{id}", f.deleteTask)
		})
	})

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

// URL returns the API base URL.
func (f *FakeAPI) URL() string { return f.srv.URL + "/api" }

// Close stops the server, so later requests fail at the transport level.
func (f *FakeAPI) Close() { f.srv.Close() }

// AddUser creates an account and returns its ID and a valid token.
func (f *FakeAPI) AddUser(name, email, password string) (int64, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.addUserLocked(name, email, password)
	return u.ID, f.issueLocked(u)
}

// AddTask stores a task for owner and returns its ID.
func (f *FakeAPI) AddTask(owner int64, title string, completed bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTask++
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	f.tasks[f.nextTask] = &FakeTask{
		ID:        f.nextTask,
		Owner:     owner,
		Title:     title,
		Completed: completed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return f.nextTask
}

// Task returns a copy of the stored task.
func (f *FakeAPI) Task(id int64) (FakeTask, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return FakeTask{}, false
	}
	return *t, true
}

// RevokeTokens invalidates every issued token.
func (f *FakeAPI) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]int64)
}

// FailNext makes the next request return status with body.
func (f *FakeAPI) FailNext(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, injectedFailure{status: status, body: body})
}

// Requests returns the requests seen so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest returns the most recent request.
func (f *FakeAPI) LastRequest() RecordedRequest {
	reqs := f.Requests()
	if len(reqs) == 0 {
		return RecordedRequest{}
	}
	return reqs[len(reqs)-1]
}

func (f *FakeAPI) addUserLocked(name, email, password string) *fakeUser {
	f.nextUser++
	u := &fakeUser{ID: f.nextUser, Name: name, Email: email, Password: password}
	f.users[email] = u
	return u
}

func (f *FakeAPI) issueLocked(u *fakeUser) string {
	f.issued++
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(u.ID, 10),
		"email": u.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
		"jti":   fmt.Sprintf("%d-%d", u.ID, f.issued),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(FakeAPISecret))
	if err != nil {
		panic(err)
	}
	f.tokens[token] = u.ID
	return token
}

// ---- middleware

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		}
		if r.Body != nil && r.ContentLength != 0 {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.Body = body
			}
			r.Body = http.NoBody
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()

		ctx := r.Context()
		next.ServeHTTP(w, r.WithContext(withBody(ctx, rec.Body)))
	})
}

func (f *FakeAPI) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		var fail *injectedFailure
		if len(f.failures) > 0 {
			fail = &f.failures[0]
			f.failures = f.failures[1:]
		}
		f.mu.Unlock()

		if fail != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			_, _ = w.Write([]byte(fail.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		userID, known := f.tokens[token]
		f.mu.Unlock()
		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID, token)))
	})
}

// ---- handlers

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	if errs := required(body, "email", "password"); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok || u.Password != password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials."})
		return
	}
	writeJSON(w, http.StatusOK, authJSON(f.issueLocked(u), u))
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	errs := required(body, "name", "email", "password")

	name, _ := body["name"].(string)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	confirmation, _ := body["password_confirmation"].(string)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, taken := f.users[email]; taken && email != "" {
		errs = append(errs, fieldErr{"email", "The email has already been taken."})
	}
	if password != "" && len(password) < 8 {
		errs = append(errs, fieldErr{"password", "The password field must be at least 8 characters."})
	}
	if password != confirmation {
		errs = append(errs, fieldErr{"password", "The password field confirmation does not match."})
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	u := f.addUserLocked(name, email, password)
	writeJSON(w, http.StatusCreated, authJSON(f.issueLocked(u), u))
}

func (f *FakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	_, token := userFrom(r.Context())
	f.mu.Lock()
	delete(f.tokens, token)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Successfully logged out"})
}

func (f *FakeAPI) listTasks(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFrom(r.Context())

	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id, t := range f.tasks {
		if t.Owner == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		data = append(data, taskJSON(f.tasks[id]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (f *FakeAPI) createTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFrom(r.Context())
	body := bodyFrom(r.Context())
	if errs := required(body, "title"); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTask++
	now := time.Now().UTC()
	t := &FakeTask{
		ID:        f.nextTask,
		Owner:     userID,
		Title:     body["title"].(string),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d, ok := body["description"].(string); ok && d != "" {
		t.Description = &d
	}
	f.tasks[t.ID] = t
	writeJSON(w, http.StatusCreated, map[string]any{"data": taskJSON(t)})
}

func (f *FakeAPI) getTask(w http.ResponseWriter, r *http.Request) {
	f.withOwnedTask(w, r, func(t *FakeTask) {
		writeJSON(w, http.StatusOK, map[string]any{"data": taskJSON(t)})
	})
}

func (f *FakeAPI) updateTask(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	if title, present := body["title"]; present {
		if s, _ := title.(string); s == "" {
			writeValidation(w, []fieldErr{{"title", "The title field is required."}})
			return
		}
	}
	f.withOwnedTask(w, r, func(t *FakeTask) {
		if s, ok := body["title"].(string); ok {
			t.Title = s
		}
		if s, ok := body["description"].(string); ok {
			t.Description = &s
		}
		if b, ok := body["is_completed"].(bool); ok {
			t.Completed = b
		}
		t.UpdatedAt = time.Now().UTC()
		writeJSON(w, http.StatusOK, map[string]any{"data": taskJSON(t)})
	})
}

func (f *FakeAPI) deleteTask(w http.ResponseWriter, r *http.Request) {
	f.withOwnedTask(w, r, func(t *FakeTask) {
		delete(f.tasks, t.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

// withOwnedTask runs fn with the lock held when the task exists and belongs
// to the caller.
func (f *FakeAPI) withOwnedTask(w http.ResponseWriter, r *http.Request, fn func(t *FakeTask)) {
	userID, _ := userFrom(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Task not found."})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Task not found."})
		return
	}
	if t.Owner != userID {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "This action is unauthorized."})
		return
	}
	fn(t)
}
