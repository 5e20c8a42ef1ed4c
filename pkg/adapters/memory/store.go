package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/schema"
)

// Store implements ports.SaveStore in memory.
// Saves are kept serialized so callers never share state with the store.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, id string, save *domain.SaveData) error {
	if id == "" {
		return fmt.Errorf("save id cannot be empty")
	}
	raw, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("failed to marshal save: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = raw
	return nil
}

// Load retrieves a snapshot from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.SaveData, error) {
	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSaveNotFound
	}
	return schema.DecodeSave(raw)
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns every stored snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]domain.SaveSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.SaveSummary, 0, len(s.data))
	for id, raw := range s.data {
		save, err := schema.DecodeSave(raw)
		if err != nil {
			return nil, fmt.Errorf("save %s: %w", id, err)
		}
		summaries = append(summaries, save.Summary(id))
	}
	domain.SortSummaries(summaries)
	return summaries, nil
}
