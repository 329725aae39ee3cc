package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps expenses in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	days map[string][]Expense
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{days: make(map[string][]Expense)}
}

// Get returns a copy of the expenses stored under key
func (m *MemoryStore) Get(_ context.Context, key string) ([]Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expenses := make([]Expense, len(m.days[key]))
	copy(expenses, m.days[key])
	return expenses, nil
}

// Put replaces the expenses stored under key
func (m *MemoryStore) Put(_ context.Context, key string, expenses []Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(expenses) == 0 {
		delete(m.days, key)
		return nil
	}
	stored := make([]Expense, len(expenses))
	copy(stored, expenses)
	m.days[key] = stored
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
