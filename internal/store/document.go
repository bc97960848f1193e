package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
)

// DocumentStore persists whole checklists.
type DocumentStore interface {
	// Load returns the stored checklist. Returns ErrChecklistNotFound if it
	// does not exist. The returned value is owned by the caller.
	Load(ctx context.Context, id uuid.UUID) (*domain.Checklist, error)

	// Save writes the checklist. A checklist with Version 0 is created and
	// fails with ErrDuplicate if the ID exists; otherwise Version must match
	// the stored version or ErrVersionConflict is returned. On success the
	// checklist's Version is incremented in place.
	Save(ctx context.Context, checklist *domain.Checklist) error

	// List returns every stored checklist, ordered by ID.
	List(ctx context.Context) ([]*domain.Checklist, error)

	// Delete removes the checklist. Returns ErrChecklistNotFound if it does
	// not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
