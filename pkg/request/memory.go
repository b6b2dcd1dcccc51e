package request

import (
	"context"
	"sync"
	"time"

	"github.com/lifelink-health/platform/pkg/matching"
)

type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Record
	order   []string
	matches []AcceptedMatch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Record)}
}

func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if _, exists := s.byID[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.byID[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// MarkMatched closes an active request in favour of donorID.
func (s *MemoryStore) MarkMatched(_ context.Context, id, donorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status == matching.RequestStatusMatched {
		return ErrRequestClosed
	}
	rec.Status = matching.RequestStatusMatched
	rec.MatchedDonorID = donorID
	rec.UpdatedAt = time.Now().UTC()
	s.byID[id] = rec
	return nil
}

func (s *MemoryStore) CreateMatch(_ context.Context, m *AcceptedMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, *m)
	return nil
}

func (s *MemoryStore) CountMatches(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), nil
}
