package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/crease/internal/domain/model"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[model.ScoreKey]model.ScoreRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[model.ScoreKey]model.ScoreRecord)}
}

func (s *MemoryStore) Get(_ context.Context, matchID, playerID string) (model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[model.KeyOf(matchID, playerID)]
	if !ok {
		return model.ScoreRecord{}, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, rec model.ScoreRecord) error {
	if rec.MatchID == "" || rec.PlayerID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, rec.Key())
	}
	s.mu.Lock()
	s.records[rec.Key()] = rec.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, matchID, playerID string) (bool, error) {
	key := model.KeyOf(matchID, playerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

func (s *MemoryStore) Scan(_ context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ScoreRecord, 0)
	for _, rec := range s.records {
		if filter.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
