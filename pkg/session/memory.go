package session

import (
	"context"
	"sync"
)

// DefaultMaxViews bounds a MemoryStore.
const DefaultMaxViews = 64

// MemoryStore is a Store backed by a map. When full, adding a view evicts
// the oldest one.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string]*View
	max   int
}

// NewMemoryStore creates a store holding at most max views. A max below
// one uses DefaultMaxViews.
func NewMemoryStore(max int) *MemoryStore {
	if max < 1 {
		max = DefaultMaxViews
	}
	return &MemoryStore{views: make(map[string]*View), max: max}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*View, error) {
	s.mu.RLock()
	v, ok := s.views[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if v.IsExpired() {
		s.mu.Lock()
		delete(s.views, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, v *View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[v.ID]; !ok && len(s.views) >= s.max {
		s.evictOldest()
	}
	s.views[v.ID] = v
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, id)
	return nil
}

func (s *MemoryStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.views {
		if v.IsExpired() {
			delete(s.views, id)
		}
	}
	return nil
}

// Len returns the number of stored views, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// evictOldest drops the view created first. Callers hold s.mu.
func (s *MemoryStore) evictOldest() {
	var oldest *View
	for _, v := range s.views {
		if oldest == nil || v.CreatedAt.Before(oldest.CreatedAt) {
			oldest = v
		}
	}
	if oldest != nil {
		delete(s.views, oldest.ID)
	}
}

var _ Store = (*MemoryStore)(nil)
