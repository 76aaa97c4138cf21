package checkpoint

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory checkpoint store for testing and development.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]storedSnapshot
	closed bool
}

// storedSnapshot holds snapshot data with metadata for List().
type storedSnapshot struct {
	data      []byte
	revision  int
	updatedAt time.Time
}

// NewMemoryStore creates a new in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]storedSnapshot),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(sessionID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy data to avoid retaining the caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	prev := m.data[sessionID]
	m.data[sessionID] = storedSnapshot{
		data:      stored,
		revision:  prev.revision + 1,
		updatedAt: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(sessionID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	snap, ok := m.data[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent modification
	result := make([]byte, len(snap.data))
	copy(result, snap.data)
	return result, nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.data))
	for sessionID, snap := range m.data {
		infos = append(infos, Info{
			SessionID: sessionID,
			Revision:  snap.revision,
			UpdatedAt: snap.updatedAt,
			Size:      int64(len(snap.data)),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].SessionID < infos[j].SessionID
		}
		return infos[i].UpdatedAt.Before(infos[j].UpdatedAt)
	})

	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, sessionID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the number of stored sessions.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
