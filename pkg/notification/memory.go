package notification

import (
	"context"
	"sync"
)

// MemoryStore keeps notifications in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]Notification
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Notification)}
}

func (s *MemoryStore) SaveBatch(_ context.Context, batch []Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range batch {
		if _, exists := s.byID[n.ID]; !exists {
			s.order = append(s.order, n.ID)
		}
		s.byID[n.ID] = n
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (s *MemoryStore) ListByDonor(_ context.Context, donorID string) ([]Notification, error) {
	return s.filter(func(n Notification) bool { return n.DonorID == donorID }), nil
}

func (s *MemoryStore) ListByRequest(_ context.Context, requestID string) ([]Notification, error) {
	return s.filter(func(n Notification) bool { return n.RequestID == requestID }), nil
}

func (s *MemoryStore) MarkAccepted(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if err := n.Accept(); err != nil {
		return err
	}
	s.byID[id] = n
	return nil
}

func (s *MemoryStore) filter(keep func(Notification) bool) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, 0)
	for _, id := range s.order {
		if n := s.byID[id]; keep(n) {
			out = append(out, n)
		}
	}
	return out
}
