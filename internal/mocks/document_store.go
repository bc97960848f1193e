package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/store"
)

// MockDocumentStore implements store.DocumentStore for testing. Methods
// without a function fall through to Backing when it is set, and otherwise
// return DefaultError.
type MockDocumentStore struct {
	LoadFn   func(ctx context.Context, id uuid.UUID) (*domain.Checklist, error)
	SaveFn   func(ctx context.Context, checklist *domain.Checklist) error
	ListFn   func(ctx context.Context) ([]*domain.Checklist, error)
	DeleteFn func(ctx context.Context, id uuid.UUID) error

	// Backing serves calls that have no function set.
	Backing store.DocumentStore

	DefaultError error

	mu        sync.Mutex
	saveCalls int
}

var _ store.DocumentStore = (*MockDocumentStore)(nil)

// Load implements store.DocumentStore
func (m *MockDocumentStore) Load(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	if m.LoadFn != nil {
		return m.LoadFn(ctx, id)
	}
	if m.Backing != nil {
		return m.Backing.Load(ctx, id)
	}
	return nil, m.DefaultError
}

// Save implements store.DocumentStore
func (m *MockDocumentStore) Save(ctx context.Context, checklist *domain.Checklist) error {
	m.mu.Lock()
	m.saveCalls++
	m.mu.Unlock()

	if m.SaveFn != nil {
		return m.SaveFn(ctx, checklist)
	}
	if m.Backing != nil {
		return m.Backing.Save(ctx, checklist)
	}
	return m.DefaultError
}

// List implements store.DocumentStore
func (m *MockDocumentStore) List(ctx context.Context) ([]*domain.Checklist, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	if m.Backing != nil {
		return m.Backing.List(ctx)
	}
	return nil, m.DefaultError
}

// Delete implements store.DocumentStore
func (m *MockDocumentStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if m.Backing != nil {
		return m.Backing.Delete(ctx, id)
	}
	return m.DefaultError
}

// SaveCalls returns how many times Save was called.
func (m *MockDocumentStore) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}
