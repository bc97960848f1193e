package yamlstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/events"
)

// Watch reports changes to checklist files as EventChecklistChanged events
// until ctx is cancelled. Writes made by this store are reported too.
func (s *Store) Watch(ctx context.Context, emitter events.EventEmitter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	s.logger.Info("watching checklist directory")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}

			id, ok := checklistID(filepath.Base(event.Name))
			if !ok {
				continue
			}

			s.logger.Debug("checklist file changed", "op", event.Op.String(), "checklist_id", id)
			changed := events.NewWorkflowEvent(events.EventChecklistChanged, id, uuid.Nil, uuid.Nil).
				WithMessage(event.Op.String())
			if err := emitter.EmitEvent(ctx, changed); err != nil {
				s.logger.Warn("failed to emit checklist change", "checklist_id", id, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("fsnotify error", "error", err)
		}
	}
}
