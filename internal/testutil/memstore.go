package testutil

import (
	"sync"

	"todoctl/internal/storage"
)

// MemoryStore is an in-memory storage.Store.
// Raw lets tests plant values that a real write would refuse, such as "undefined".
type MemoryStore struct {
	mu  sync.Mutex
	raw string

	ClearErr error
	Clears   int
}

// NewMemoryStore returns a store holding raw.
func NewMemoryStore(raw string) *MemoryStore {
	return &MemoryStore{raw: raw}
}

// Raw returns the stored value without validation.
func (m *MemoryStore) Raw() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw
}

// Load implements storage.Store.
func (m *MemoryStore) Load() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !storage.Valid(m.raw) {
		return "", false
	}
	return m.raw, true
}

// Save implements storage.Store.
func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = token
	return nil
}

// Clear implements storage.Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clears++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.raw = ""
	return nil
}
