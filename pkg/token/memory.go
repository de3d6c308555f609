package token

import "sync"

// MemoryStore is an in-memory token store. It is used by tests and by
// callers that want a session scoped to the process lifetime only.
type MemoryStore struct {
	mu      sync.RWMutex
	pair    Pair
	present bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores the pair, overwriting any existing value.
func (m *MemoryStore) Save(pair Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	m.present = true
	return nil
}

// Load returns the stored pair, if any. A stored pair with an empty
// access token counts as absent, matching the file store's handling of
// malformed entries.
func (m *MemoryStore) Load() (Pair, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present || m.pair.Access == "" {
		return Pair{}, false, nil
	}
	return m.pair, true, nil
}

// Clear removes the stored pair.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = Pair{}
	m.present = false
	return nil
}
