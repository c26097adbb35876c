package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     map[string]any
	updatedAt time.Time
}

// MemoryStore is an in-memory Store for development and tests. Entries
// expire ttl after their last write; a zero ttl disables expiry.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
	}
}

// Create installs state for the session, replacing any existing state
func (m *MemoryStore) Create(ctx context.Context, userID, sessionID string, state map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionKey(userID, sessionID)] = &memoryEntry{
		state:     copyState(state),
		updatedAt: time.Now(),
	}
	return nil
}

// Get returns a snapshot of the session state
func (m *MemoryStore) Get(ctx context.Context, userID, sessionID string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, sessionID)
	entry, exists := m.sessions[key]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if m.expired(entry) {
		delete(m.sessions, key)
		return nil, ErrSessionNotFound
	}
	return copyState(entry.state), nil
}

// Merge writes update keys into the existing session state
func (m *MemoryStore) Merge(ctx context.Context, userID, sessionID string, update map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, sessionID)
	entry, exists := m.sessions[key]
	if !exists {
		return ErrSessionNotFound
	}
	if m.expired(entry) {
		delete(m.sessions, key)
		return ErrSessionNotFound
	}

	for key, value := range update {
		entry.state[key] = value
	}
	entry.updatedAt = time.Now()
	return nil
}

// Delete removes the session
func (m *MemoryStore) Delete(ctx context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionKey(userID, sessionID))
	return nil
}

func (m *MemoryStore) expired(entry *memoryEntry) bool {
	if m.ttl <= 0 {
		return false
	}
	return time.Since(entry.updatedAt) > m.ttl
}

func copyState(state map[string]any) map[string]any {
	copied := make(map[string]any, len(state))
	for key, value := range state {
		copied[key] = value
	}
	return copied
}
