package session

import "sync"

// Store persists the session across restarts: the authenticated flag
// and the token, nothing more.
type Store interface {
	Load() (authenticated bool, token string, err error)
	Save(token string) error
	Clear() error
}

// MemoryStore keeps the session in memory only. Used in tests and
// when no storage path is configured.
type MemoryStore struct {
	mu            sync.Mutex
	authenticated bool
	token         string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated, s.token, nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.token = ""
	return nil
}
