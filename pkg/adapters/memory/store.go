package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
)

// Store implements ports.HistoryStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]ports.RunRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]ports.RunRecord),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, rec ports.RunRecord) error {
	// Copy the path so later mutations by the caller are not visible.
	rec.Path = append([]string(nil), rec.Path...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID] = rec
	return nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, id string) (ports.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return ports.RunRecord{}, domain.ErrRunNotFound
	}

	// Create a copy on read so caller can't mutate store state through the slice
	rec.Path = append([]string(nil), rec.Path...)
	return rec, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns records, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]ports.RunRecord, 0, len(s.data))
	for _, rec := range s.data {
		rec.Path = append([]string(nil), rec.Path...)
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
