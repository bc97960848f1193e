package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/events"
	"github.com/phrazzld/checklist-api/internal/store"
	"github.com/phrazzld/checklist-api/internal/task"
	"github.com/phrazzld/checklist-api/internal/thread"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// DefaultUpdateAttempts is how many times Update retries a write that lost
// an optimistic concurrency race.
const DefaultUpdateAttempts = 5

// Repository is the only path through which checklists are read and
// mutated. Every read applies the stale sweep, and every mutation is a
// read-modify-write against the latest stored version.
type Repository struct {
	store    store.DocumentStore
	emitter  events.EventEmitter
	policy   workflow.Policy
	attempts int
	logger   *slog.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

var _ task.Documents = (*Repository)(nil)

// NewRepository creates a repository over documentStore. A nil emitter
// discards reset events.
func NewRepository(
	documentStore store.DocumentStore,
	emitter events.EventEmitter,
	policy workflow.Policy,
	logger *slog.Logger,
) (*Repository, error) {
	if documentStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if policy.StaleAfter <= 0 {
		return nil, fmt.Errorf("stale threshold must be positive, got %s", policy.StaleAfter)
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Repository{
		store:    documentStore,
		emitter:  emitter,
		policy:   policy,
		attempts: DefaultUpdateAttempts,
		logger:   logger.With("component", "repository"),
		now:      time.Now,
		newID:    uuid.New,
	}, nil
}

// Policy returns the workflow policy the repository sweeps with.
func (r *Repository) Policy() workflow.Policy {
	return r.policy
}

// Load returns the checklist with stale running remarks reset. Resets are
// persisted before the checklist is returned.
func (r *Repository) Load(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	return r.Update(ctx, id, nil)
}

// Update loads the checklist, sweeps it, applies fn and saves the result.
// A write that loses to a concurrent writer is retried from a fresh load, so
// fn may run more than once and must only touch the checklist it is given.
// When fn returns an error nothing is saved and the error is returned as is.
// A nil fn only persists the sweep, and saves nothing if the sweep found no
// stale remark.
func (r *Repository) Update(
	ctx context.Context,
	id uuid.UUID,
	fn func(*domain.Checklist) error,
) (*domain.Checklist, error) {
	for attempt := 1; ; attempt++ {
		checklist, err := r.store.Load(ctx, id)
		if err != nil {
			return nil, err
		}

		now := r.now().UTC()
		resets := workflow.Sweep(checklist, now, r.policy.StaleAfter, r.newID)
		r.logOrphans(checklist)

		if fn == nil && len(resets) == 0 {
			return checklist, nil
		}

		if fn != nil {
			if err := fn(checklist); err != nil {
				return nil, err
			}
		}

		checklist.UpdatedAt = now
		err = r.store.Save(ctx, checklist)
		if errors.Is(err, store.ErrVersionConflict) && attempt < r.attempts {
			r.logger.Debug("checklist changed underneath, retrying",
				"checklist_id", id,
				"attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		r.emitResets(ctx, checklist.ID, resets)
		return checklist, nil
	}
}

// Create stores a new checklist.
func (r *Repository) Create(ctx context.Context, checklist *domain.Checklist) error {
	if err := checklist.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	checklist.Version = 0
	checklist.UpdatedAt = r.now().UTC()
	return r.store.Save(ctx, checklist)
}

// List returns every checklist. Checklists holding stale running remarks are
// reloaded through Load so their resets are persisted.
func (r *Repository) List(ctx context.Context) ([]*domain.Checklist, error) {
	checklists, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Checklist, 0, len(checklists))
	now := r.now().UTC()
	for _, c := range checklists {
		if len(workflow.Sweep(c.Clone(), now, r.policy.StaleAfter, r.newID)) == 0 {
			out = append(out, c)
			continue
		}

		swept, err := r.Load(ctx, c.ID)
		if store.IsNotFoundError(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, swept)
	}
	return out, nil
}

// Delete removes a checklist.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, id)
}

func (r *Repository) emitResets(ctx context.Context, checklistID uuid.UUID, resets []workflow.Reset) {
	for _, reset := range resets {
		r.logger.Info("reset stale running remark",
			"checklist_id", checklistID,
			"task_id", reset.TaskID,
			"remark_id", reset.RemarkID,
			"running_since", reset.RunningSince)

		event := events.NewWorkflowEvent(events.EventRemarkReset, checklistID, reset.TaskID, reset.RemarkID).
			WithTag(&domain.WorkflowTag{Family: reset.Family, State: domain.StatePending}).
			WithMessage(reset.Notice.Body)
		if err := r.emitter.EmitEvent(ctx, event); err != nil {
			r.logger.Warn("failed to emit reset event",
				"checklist_id", checklistID,
				"remark_id", reset.RemarkID,
				"error", err)
		}
	}
}

func (r *Repository) logOrphans(checklist *domain.Checklist) {
	for _, t := range checklist.Tasks {
		for _, orphan := range thread.Orphans(t.Remarks) {
			r.logger.Debug("remark parent does not resolve, shown as root",
				"checklist_id", checklist.ID,
				"task_id", t.ID,
				"remark_id", orphan.ID)
		}
	}
}
