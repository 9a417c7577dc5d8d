package session

import "sync"

// Store keeps one draft per logical user session. Implementations must not
// share drafts across session keys.
type Store interface {
	Get(sessionID string) Draft
	Put(sessionID string, d Draft)
	Clear(sessionID string)
}

// MemoryStore is the in-process Store used by the server. Drafts are cheap
// value copies, so no caller ever holds a pointer into the map.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]Draft)}
}

func (s *MemoryStore) Get(sessionID string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[sessionID]; ok {
		return d
	}
	return NewDraft()
}

func (s *MemoryStore) Put(sessionID string, d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[sessionID] = d
}

func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, sessionID)
}
