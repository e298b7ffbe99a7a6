package platform

import "sync"

// TokenStorage persists the serialized session under a single key. The auth
// client treats it as its only persistence backend: cookie-backed on the
// server, memory or browser-local storage on the client side.
type TokenStorage interface {
	// GetItem returns the stored value, or ok=false when the key is absent.
	GetItem(key string) (value string, ok bool)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// MemoryStorage is a map-backed TokenStorage used by the client-side
// hydrator and by tests.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage returns an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

var _ TokenStorage = (*MemoryStorage)(nil)
