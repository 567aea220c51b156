package auth

import "sync"

// MemoryStore keeps tokens for the lifetime of the process
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string)}
}

func (s *MemoryStore) SaveToken(server, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[server] = token
	return nil
}

func (s *MemoryStore) LoadToken(server string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[server]
	if !ok {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

func (s *MemoryStore) DeleteToken(server string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, server)
	return nil
}
