// Package storage persists the session token between runs.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by a TokenSource when no valid token is stored.
var ErrNoToken = errors.New("no session token stored")

// Store holds at most one session token.
// Load reports false for anything that is not a valid token.
type Store interface {
	Load() (string, bool)
	Save(token string) error
	Clear() error
}

// Valid reports whether token can be used as a bearer credential.
// Empty strings and the literals "undefined" and "null" are leftovers of
// broken writes and never count as a session.
func Valid(token string) bool {
	switch token {
	case "", "undefined", "null":
		return false
	}
	return true
}

// FileStore keeps the token as an oauth2.Token JSON document.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load implements Store.
func (s *FileStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", false
	}
	if !Valid(tok.AccessToken) {
		return "", false
	}
	return tok.AccessToken, true
}

// Save implements Store. The file is written with mode 0600.
func (s *FileStore) Save(token string) error {
	if !Valid(token) {
		return fmt.Errorf("refusing to store invalid token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear implements Store. Clearing a missing token is a no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

type storeSource struct {
	store Store
}

// TokenSource adapts a Store to oauth2.TokenSource.
// Every call reads the store again; nothing is cached.
func TokenSource(store Store) oauth2.TokenSource {
	return storeSource{store: store}
}

func (s storeSource) Token() (*oauth2.Token, error) {
	token, ok := s.store.Load()
	if !ok {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
