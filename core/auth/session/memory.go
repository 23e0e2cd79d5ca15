package session

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	user *User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) User(context.Context) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.user)
}

func (s *MemoryStore) SetUser(_ context.Context, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = clone(user)
}

func (s *MemoryStore) ClearUser(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}
