package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
)

// MemoryStore is a DocumentStore that keeps documents in process memory.
// Documents are cloned on the way in and out, so callers never share state
// with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*domain.Checklist
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[uuid.UUID]*domain.Checklist)}
}

var _ DocumentStore = (*MemoryStore)(nil)

// Load implements DocumentStore.
func (s *MemoryStore) Load(_ context.Context, id uuid.UUID) (*domain.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrChecklistNotFound
	}
	return doc.Clone(), nil
}

// Save implements DocumentStore.
func (s *MemoryStore) Save(_ context.Context, checklist *domain.Checklist) error {
	if err := checklist.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.docs[checklist.ID]
	switch {
	case checklist.Version == 0 && exists:
		return fmt.Errorf("%w: checklist %s", ErrDuplicate, checklist.ID)
	case checklist.Version != 0 && !exists:
		return ErrChecklistNotFound
	case exists && current.Version != checklist.Version:
		return fmt.Errorf("%w: checklist %s is at version %d, not %d",
			ErrVersionConflict, checklist.ID, current.Version, checklist.Version)
	}

	checklist.Version++
	s.docs[checklist.ID] = checklist.Clone()
	return nil
}

// List implements DocumentStore.
func (s *MemoryStore) List(_ context.Context) ([]*domain.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Checklist, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Delete implements DocumentStore.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrChecklistNotFound
	}
	delete(s.docs, id)
	return nil
}
