package billing

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory subscription store for demo/development.
type MemoryStore struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription // by ID
	byAcct map[string][]string      // account ID → subscription IDs, creation order
}

// NewMemoryStore creates a new in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs:   make(map[string]*Subscription),
		byAcct: make(map[string][]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.byAcct[s.AccountID] {
		if m.subs[id].Active() {
			return ErrSubscriptionExists
		}
	}

	cp := copySub(s)
	m.subs[s.ID] = cp
	m.byAcct[s.AccountID] = append(m.byAcct[s.AccountID], s.ID)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return copySub(s), nil
}

func (m *MemoryStore) GetActiveByAccount(_ context.Context, accountID string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.byAcct[accountID] {
		if s := m.subs[id]; s.Active() {
			return copySub(s), nil
		}
	}
	return nil, ErrNoActiveSubscription
}

func (m *MemoryStore) LatestByAccount(_ context.Context, accountID string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byAcct[accountID]
	if len(ids) == 0 {
		return nil, ErrSubscriptionNotFound
	}
	return copySub(m.subs[ids[len(ids)-1]]), nil
}

func (m *MemoryStore) Update(_ context.Context, s *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[s.ID]; !ok {
		return ErrSubscriptionNotFound
	}
	m.subs[s.ID] = copySub(s)
	return nil
}

func copySub(s *Subscription) *Subscription {
	cp := *s
	if s.Metadata != nil {
		cp.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

var _ Store = (*MemoryStore)(nil)
