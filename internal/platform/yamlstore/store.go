package yamlstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/platform/logger"
	"github.com/phrazzld/checklist-api/internal/store"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

const fileExt = ".yaml"

// Store keeps each checklist in <dir>/<id>.yaml.
type Store struct {
	dir    string
	logger *slog.Logger

	// mu serialises writers so the version check and the rename are atomic
	// with respect to other saves from this process.
	mu    sync.Mutex
	loads singleflight.Group
}

// New creates the directory if needed and returns a store rooted at it.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("yamlstore: directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir %s: %w", dir, err)
	}

	return &Store{
		dir:    dir,
		logger: logger.With("component", "yaml_store", "dir", dir),
	}, nil
}

var _ store.DocumentStore = (*Store)(nil)

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+fileExt)
}

// Load implements store.DocumentStore. Concurrent loads of the same checklist
// share one file read; each caller receives its own copy.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	v, err, shared := s.loads.Do(id.String(), func() (any, error) {
		return s.read(id)
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOr(ctx, s.logger).Error("failed to load checklist",
				"checklist_id", id, "error", err)
		}
		return nil, err
	}

	checklist := v.(*domain.Checklist)
	if shared {
		return checklist.Clone(), nil
	}
	return checklist, nil
}

func (s *Store) read(id uuid.UUID) (*domain.Checklist, error) {
	content, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrChecklistNotFound
		}
		return nil, store.NewStoreError("checklist", "load", "read failed", err)
	}

	var checklist domain.Checklist
	if err := yaml.Unmarshal(content, &checklist); err != nil {
		return nil, store.NewStoreError("checklist", "load", "invalid YAML document", err)
	}
	if checklist.ID != id {
		return nil, store.NewStoreError("checklist", "load",
			fmt.Sprintf("file holds checklist %s", checklist.ID), store.ErrInvalidEntity)
	}
	if checklist.Tasks == nil {
		checklist.Tasks = []*domain.Task{}
	}
	return &checklist, nil
}

// Save implements store.DocumentStore.
func (s *Store) Save(ctx context.Context, checklist *domain.Checklist) error {
	log := logger.FromContextOr(ctx, s.logger).With("checklist_id", checklist.ID)

	if err := checklist.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(checklist.ID)
	exists := err == nil
	if err != nil && !store.IsNotFoundError(err) {
		return err
	}

	switch {
	case checklist.Version == 0 && exists:
		return fmt.Errorf("%w: checklist %s", store.ErrDuplicate, checklist.ID)
	case checklist.Version != 0 && !exists:
		return store.ErrChecklistNotFound
	case exists && current.Version != checklist.Version:
		return fmt.Errorf("%w: checklist %s is at version %d, not %d",
			store.ErrVersionConflict, checklist.ID, current.Version, checklist.Version)
	}

	checklist.Version++
	if err := writeAtomic(s.path(checklist.ID), checklist); err != nil {
		checklist.Version--
		log.Error("failed to write checklist", "error", err)
		return store.NewStoreError("checklist", "save", "write failed", err)
	}

	log.Debug("checklist saved", "version", checklist.Version)
	return nil
}

// List implements store.DocumentStore. Files whose name is not a checklist
// ID are ignored, as are documents that fail to parse.
func (s *Store) List(ctx context.Context) ([]*domain.Checklist, error) {
	log := logger.FromContextOr(ctx, s.logger)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, store.NewStoreError("checklist", "list", "read dir failed", err)
	}

	out := []*domain.Checklist{}
	for _, entry := range entries {
		id, ok := checklistID(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}

		checklist, err := s.Load(ctx, id)
		if err != nil {
			log.Warn("skipping unreadable checklist file", "file", entry.Name(), "error", err)
			continue
		}
		out = append(out, checklist)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Delete implements store.DocumentStore. The backup file is removed too.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(id)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.ErrChecklistNotFound
		}
		return store.NewStoreError("checklist", "delete", "remove failed", err)
	}
	_ = os.Remove(path + ".bak")

	logger.FromContextOr(ctx, s.logger).Debug("checklist deleted", "checklist_id", id)
	return nil
}

// checklistID parses "<uuid>.yaml" file names.
func checklistID(name string) (uuid.UUID, bool) {
	base, ok := strings.CutSuffix(name, fileExt)
	if !ok || strings.HasPrefix(base, ".") {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(base)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
