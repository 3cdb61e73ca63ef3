package doctor

import "sync"

// Store owns the canonical Doctor set for the life of the widget. Entries are
// appended as records arrive; nothing is removed or rewritten. Reads return
// copies in source order.
type Store struct {
	mu   sync.RWMutex
	byID map[string]int
	docs []Doctor
}

func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Ingest appends d unless a doctor with the same ID is already present.
func (s *Store) Ingest(d Doctor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[d.ID]; ok {
		return false
	}
	s.byID[d.ID] = len(s.docs)
	s.docs = append(s.docs, d)
	return true
}

// All returns the doctors in source order.
func (s *Store) All() []Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Doctor, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *Store) Get(id string) (Doctor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return Doctor{}, false
	}
	return s.docs[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
