// Package session holds the authentication state of the running process.
//
// A Store starts in the loading phase. Restore resolves it from the persisted
// token; Login, Register and Logout move it between the guest and
// authenticated phases. A Store subscribes to the HTTP client's unauthorized
// notification and logs out locally whenever the API rejects the token.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"todoctl/internal/logger"
	"todoctl/internal/service"
	"todoctl/internal/storage"
)

// ErrInvalidToken is returned by Login and Register when the API handed back
// a token that cannot be used.
var ErrInvalidToken = errors.New("invalid session token")

// PlaceholderName is the user name shown after Restore, which does not
// re-fetch the profile.
const PlaceholderName = "User"

// Phase is the coarse session state.
type Phase int

const (
	// PhaseLoading means the persisted token has not been inspected yet.
	PhaseLoading Phase = iota
	// PhaseGuest means no valid token is held.
	PhaseGuest
	// PhaseAuthenticated means a valid token is held.
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseGuest:
		return "guest"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session.
type State struct {
	User          *service.User
	Token         string
	Authenticated bool
	Loading       bool
}

// Phase reports the phase the snapshot is in.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Authenticated:
		return PhaseAuthenticated
	default:
		return PhaseGuest
	}
}

// HeaderSetter manages the default Authorization header of an HTTP client.
type HeaderSetter interface {
	SetAuthToken(token string)
	ClearAuthToken()
}

// Notifier delivers the unauthorized signal.
type Notifier interface {
	OnUnauthorized(fn func()) (unsubscribe func())
}

// Remote is told about explicit logouts.
type Remote interface {
	Logout(ctx context.Context) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRemote makes Logout notify the API before clearing local state.
func WithRemote(r Remote) Option {
	return func(s *Store) { s.remote = r }
}

// Store is the process-wide session.
type Store struct {
	tokens  storage.Store
	headers HeaderSetter
	remote  Remote
	log     *slog.Logger

	mu          sync.RWMutex
	state       State
	unsubscribe func()
}

// New creates a Store in the loading phase and subscribes it to notifier.
// notifier may be nil.
func New(tokens storage.Store, headers HeaderSetter, notifier Notifier, opts ...Option) *Store {
	s := &Store{
		tokens:  tokens,
		headers: headers,
		log:     logger.Discard(),
		state:   State{Loading: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "session")
	if notifier != nil {
		s.unsubscribe = notifier.OnUnauthorized(s.expire)
	}
	return s
}

// Close unsubscribes from the unauthorized notification.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns a snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Restore resolves the loading phase from the persisted token.
func (s *Store) Restore() State {
	token, ok := s.tokens.Load()

	s.mu.Lock()
	if ok {
		s.state = State{
			User:          &service.User{Name: PlaceholderName},
			Token:         token,
			Authenticated: true,
		}
	} else {
		s.state = State{}
	}
	s.mu.Unlock()

	if ok {
		s.headers.SetAuthToken(token)
	} else {
		s.headers.ClearAuthToken()
	}
	s.log.Debug("session restored", "authenticated", ok)
	return s.State()
}

// Login records a successful login.
func (s *Store) Login(token string, user *service.User) error {
	return s.establish("login", token, user)
}

// Register records a successful registration.
func (s *Store) Register(token string, user *service.User) error {
	return s.establish("register", token, user)
}

func (s *Store) establish(op, token string, user *service.User) error {
	if !storage.Valid(token) {
		s.log.Warn("api returned unusable token", "op", op)
		s.clearLocal()
		return ErrInvalidToken
	}
	if err := s.tokens.Save(token); err != nil {
		s.clearLocal()
		return err
	}
	s.headers.SetAuthToken(token)

	if user == nil {
		user = &service.User{Name: PlaceholderName}
	} else {
		u := *user
		user = &u
	}
	s.mu.Lock()
	s.state = State{User: user, Token: token, Authenticated: true}
	s.mu.Unlock()
	s.log.Debug("session established", "op", op, "user", user.Email)
	return nil
}

// Logout ends the session. When authenticated and a Remote is configured the
// API is told first; that call's failure is logged and otherwise ignored.
// Logout is safe to call repeatedly.
func (s *Store) Logout(ctx context.Context) {
	if s.remote != nil && s.State().Authenticated {
		if err := s.remote.Logout(ctx); err != nil {
			s.log.Debug("remote logout failed", "error", err)
		}
	}
	s.clearLocal()
}

// expire handles the unauthorized notification. It never calls the API.
func (s *Store) expire() {
	s.log.Info("session expired")
	s.clearLocal()
}

func (s *Store) clearLocal() {
	if err := s.tokens.Clear(); err != nil {
		s.log.Error("failed to clear stored token", "error", err)
	}
	s.headers.ClearAuthToken()

	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}
