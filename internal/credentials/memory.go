package credentials

import (
	"context"
	"sync"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// MemoryStore keeps handles in process memory. It lives as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[types.Provider]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[types.Provider]string)}
}

func (m *MemoryStore) Get(_ context.Context, p types.Provider) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[p], nil
}

func (m *MemoryStore) Set(_ context.Context, p types.Provider, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.values, p)
		return nil
	}
	m.values[p] = value
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.values)
	return nil
}
