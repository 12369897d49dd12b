package session

import (
	"context"
	"sync"
	"time"

	"github.com/gradecard/backend/internal/domain"
)

// sessionItem is a stored session with its expiration
type sessionItem struct {
	Session    domain.NavigationSession
	Expiration time.Time
}

// MemoryStore is a thread-safe in-memory navigation session store with TTL support
type MemoryStore struct {
	data  map[string]sessionItem
	mutex sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates a store that sweeps expired sessions every interval
func NewMemoryStore(interval time.Duration) *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]sessionItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go store.cleanupExpired(interval)

	return store
}

// Get returns a copy of the session, or ErrSessionNotFound when absent or expired
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.NavigationSession, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, exists := s.data[id]
	if !exists || s.now().After(item.Expiration) {
		return nil, domain.ErrSessionNotFound
	}

	session := item.Session
	return &session, nil
}

// Save stores a copy of session with TTL
func (s *MemoryStore) Save(ctx context.Context, session *domain.NavigationSession, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidRequest
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[session.ID] = sessionItem{
		Session:    *session,
		Expiration: s.now().Add(ttl),
	}
	return nil
}

// Delete removes a session
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, id)
	return nil
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// cleanupExpired removes expired sessions periodically
func (s *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for id, item := range s.data {
		if now.After(item.Expiration) {
			delete(s.data, id)
		}
	}
}

// Size returns the current number of stored sessions, including expired ones not yet swept
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
