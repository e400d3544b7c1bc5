package account

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory account store for demo/development.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account // by ID
	emails   map[string]string   // lowercased email → ID
}

// NewMemoryStore creates a new in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		emails:   make(map[string]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(a.Email)
	if _, exists := m.emails[key]; exists {
		return ErrEmailTaken
	}

	cp := *a
	m.accounts[a.ID] = &cp
	m.emails[key] = a.ID
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.accounts[a.ID]
	if !ok {
		return ErrAccountNotFound
	}

	newKey := strings.ToLower(a.Email)
	oldKey := strings.ToLower(old.Email)
	if newKey != oldKey {
		if _, exists := m.emails[newKey]; exists {
			return ErrEmailTaken
		}
		delete(m.emails, oldKey)
		m.emails[newKey] = a.ID
	}

	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *MemoryStore) EmailTaken(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.emails[strings.ToLower(email)]
	return ok, nil
}

var _ Store = (*MemoryStore)(nil)
