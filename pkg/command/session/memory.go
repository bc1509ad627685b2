package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	refs    []EntityRef
	touched time.Time
}

// MemoryStore mantém as sessões em memória do processo
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	maxRefs  int
	now      func() time.Time
	sessions map[string]*memoryEntry
}

// NewMemoryStore cria o armazenamento em memória. ttl <= 0 usa DefaultTTL.
func NewMemoryStore(ttl time.Duration, maxRefs int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxRefs <= 0 {
		maxRefs = DefaultMaxRefs
	}
	return &MemoryStore{
		ttl:      ttl,
		maxRefs:  maxRefs,
		now:      time.Now,
		sessions: make(map[string]*memoryEntry),
	}
}

// Snapshot retorna as referências da sessão; sessões expiradas ficam vazias
func (s *MemoryStore) Snapshot(_ context.Context, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, nil
	}
	if s.now().Sub(e.touched) > s.ttl {
		delete(s.sessions, sessionID)
		return Snapshot{}, nil
	}
	return Snapshot{Refs: slices.Clone(e.refs)}, nil
}

// Remember adiciona referências e renova a expiração
func (s *MemoryStore) Remember(_ context.Context, sessionID string, refs ...EntityRef) error {
	if len(refs) == 0 || sessionID == "" {
		return nil
	}
	now := s.now()
	for i := range refs {
		if refs[i].At.IsZero() {
			refs[i].At = now
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok || now.Sub(e.touched) > s.ttl {
		e = &memoryEntry{}
		s.sessions[sessionID] = e
	}
	e.refs = merge(e.refs, refs, s.maxRefs)
	e.touched = now
	return nil
}

// Forget apaga a sessão
func (s *MemoryStore) Forget(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Prune remove sessões expiradas e retorna quantas foram removidas
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if now.Sub(e.touched) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
