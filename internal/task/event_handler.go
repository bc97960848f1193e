package task

import (
	"context"

	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/events"
	"github.com/phrazzld/checklist-api/internal/store"
)

// HandleEvent implements events.EventHandler. A swept prompt execution is
// dequeueable again, so it is put back on the queue. A checklist changed on
// disk is rescanned for queued remarks the queue does not hold yet. Any other
// change may unblock the head entry and wakes the consumer.
func (s *Scheduler) HandleEvent(ctx context.Context, event *events.WorkflowEvent) error {
	switch event.Type {
	case events.EventRemarkReset:
		if event.Family == domain.FamilyPromptExecution {
			return s.Enqueue(Entry{
				ChecklistID: event.ChecklistID,
				TaskID:      event.TaskID,
				RemarkID:    event.RemarkID,
			})
		}
		s.signal()
	case events.EventChecklistChanged:
		if _, err := s.RecoverChecklist(ctx, event.ChecklistID); err != nil && !store.IsNotFoundError(err) {
			s.logger.Warn("failed to rescan changed checklist",
				"checklist_id", event.ChecklistID,
				"error", err)
		}
		s.signal()
	}
	return nil
}

var _ events.EventHandler = (*Scheduler)(nil)
