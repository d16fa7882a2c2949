package store

import (
	"context"
	"sync"

	"carefund/internal/registry/models"
	id "carefund/pkg/domain"
	"carefund/pkg/platform/sentinel"
)

// InMemoryStore keeps verifier records in a map. It is the production store
// for the serialized core; the registry service provides the single-writer
// discipline, the store only guards its own map.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.Principal]*models.VerifierRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.Principal]*models.VerifierRecord)}
}

func (s *InMemoryStore) Get(_ context.Context, principal id.Principal) (*models.VerifierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[principal]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemoryStore) Create(_ context.Context, record *models.VerifierRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Principal]; ok {
		return sentinel.ErrConflict
	}
	cp := *record
	s.records[record.Principal] = &cp
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, record *models.VerifierRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Principal]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *record
	s.records[record.Principal] = &cp
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, principal id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[principal]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, principal)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.VerifierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.VerifierRecord, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}
