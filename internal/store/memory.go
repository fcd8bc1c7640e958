package store

import (
	"context"
	"sort"
	"sync"

	"appforge/internal/models"
)

// MemoryStore is the default backend. It holds submissions in a map and is
// safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*models.Submission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]*models.Submission)}
}

func (m *MemoryStore) Put(ctx context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.subs[sub.Key()] = &cp
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subs[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Submission, 0, len(m.subs))
	for _, sub := range m.subs {
		cp := *sub
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
