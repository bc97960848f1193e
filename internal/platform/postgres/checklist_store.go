package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/platform/logger"
	"github.com/phrazzld/checklist-api/internal/store"
)

// ChecklistStore implements store.DocumentStore on a checklists table.
type ChecklistStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewChecklistStore creates a store on an open *sql.DB. The connection is
// owned by the caller. If logger is nil, slog.Default() is used.
func NewChecklistStore(db *sql.DB, logger *slog.Logger) *ChecklistStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ChecklistStore{
		db:     db,
		logger: logger.With("component", "checklist_store"),
		now:    time.Now,
	}
}

var _ store.DocumentStore = (*ChecklistStore)(nil)

const (
	selectDocument = `SELECT document, version FROM checklists WHERE id = $1`
	selectAll      = `SELECT document, version FROM checklists ORDER BY id`
	insertDocument = `
		INSERT INTO checklists (id, name, document, version, updated_at)
		VALUES ($1, $2, $3, 1, $4)`
	lockVersion    = `SELECT version FROM checklists WHERE id = $1 FOR UPDATE`
	updateDocument = `
		UPDATE checklists
		SET name = $2, document = $3, version = version + 1, updated_at = $4
		WHERE id = $1`
	deleteDocument = `DELETE FROM checklists WHERE id = $1`
)

// Load implements store.DocumentStore.
func (s *ChecklistStore) Load(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	log := logger.FromContextOr(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, selectDocument, id)
	checklist, err := scanChecklist(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrChecklistNotFound
		}
		log.Error("failed to load checklist", "checklist_id", id, "error", err)
		return nil, MapError(err)
	}

	return checklist, nil
}

// Save implements store.DocumentStore.
func (s *ChecklistStore) Save(ctx context.Context, checklist *domain.Checklist) error {
	log := logger.FromContextOr(ctx, s.logger).With("checklist_id", checklist.ID)

	if err := checklist.Validate(); err != nil {
		log.Warn("checklist validation failed during save", "error", err)
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	doc, err := json.Marshal(checklist)
	if err != nil {
		return fmt.Errorf("failed to encode checklist: %w", err)
	}
	now := s.now().UTC()

	if checklist.Version == 0 {
		_, err := s.db.ExecContext(ctx, insertDocument, checklist.ID, checklist.Name, string(doc), now)
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: checklist %s", store.ErrDuplicate, checklist.ID)
			}
			log.Error("failed to create checklist", "error", err)
			return MapError(err)
		}
		checklist.Version = 1
		log.Debug("checklist created")
		return nil
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return updateVersioned(ctx, tx, checklist, doc, now)
	})
	if err != nil {
		if !store.IsVersionConflict(err) {
			log.Error("failed to save checklist", "version", checklist.Version, "error", err)
		}
		return err
	}

	checklist.Version++
	log.Debug("checklist saved", "version", checklist.Version)
	return nil
}

// List implements store.DocumentStore.
func (s *ChecklistStore) List(ctx context.Context) ([]*domain.Checklist, error) {
	log := logger.FromContextOr(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, selectAll)
	if err != nil {
		log.Error("failed to list checklists", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []*domain.Checklist{}
	for rows.Next() {
		checklist, err := scanChecklist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, checklist)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return out, nil
}

// Delete implements store.DocumentStore.
func (s *ChecklistStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOr(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, deleteDocument, id)
	if err != nil {
		log.Error("failed to delete checklist", "checklist_id", id, "error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "checklist"); err != nil {
		return store.ErrChecklistNotFound
	}

	log.Debug("checklist deleted", "checklist_id", id)
	return nil
}

// updateVersioned overwrites the stored document if it is still at
// checklist.Version. q must be a transaction so the row lock holds until the
// update.
func updateVersioned(ctx context.Context, q store.DBTX, checklist *domain.Checklist, doc []byte, now time.Time) error {
	var current int64
	if err := q.QueryRowContext(ctx, lockVersion, checklist.ID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrChecklistNotFound
		}
		return MapError(err)
	}

	if current != checklist.Version {
		return fmt.Errorf("%w: checklist %s is at version %d, not %d",
			store.ErrVersionConflict, checklist.ID, current, checklist.Version)
	}

	result, err := q.ExecContext(ctx, updateDocument, checklist.ID, checklist.Name, string(doc), now)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "checklist")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChecklist(row scanner) (*domain.Checklist, error) {
	var (
		doc     []byte
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		return nil, err
	}

	var checklist domain.Checklist
	if err := json.Unmarshal(doc, &checklist); err != nil {
		return nil, fmt.Errorf("failed to decode checklist document: %w", err)
	}
	checklist.Version = version
	if checklist.Tasks == nil {
		checklist.Tasks = []*domain.Task{}
	}
	return &checklist, nil
}
