package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
)

// EventType names what happened.
type EventType string

// Workflow event types
const (
	// EventRemarkEnqueued is emitted when a remark is added to the execution
	// queue, either by a user or by startup recovery.
	EventRemarkEnqueued EventType = "remark_enqueued"

	// EventExecutionStarted is emitted once the running state is durable.
	EventExecutionStarted EventType = "execution_started"

	// EventExecutionCompleted is emitted after a result remark is written.
	EventExecutionCompleted EventType = "execution_completed"

	// EventExecutionFailed is emitted after a failure remark is written.
	EventExecutionFailed EventType = "execution_failed"

	// EventRemarkReset is emitted for each remark the stale sweep returns to
	// pending.
	EventRemarkReset EventType = "remark_reset"

	// EventEntryDropped is emitted when the scheduler discards a queue entry
	// whose remark vanished or moved on.
	EventEntryDropped EventType = "entry_dropped"

	// EventChecklistChanged is emitted when a checklist document file changed
	// on disk.
	EventChecklistChanged EventType = "checklist_changed"
)

// WorkflowEvent describes one change to workflow state.
type WorkflowEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type        EventType `json:"type"`
	ChecklistID uuid.UUID `json:"checklist_id"`
	TaskID      uuid.UUID `json:"task_id,omitempty"`
	RemarkID    uuid.UUID `json:"remark_id,omitempty"`

	// Family and State describe the remark after the change, when known.
	Family domain.WorkflowFamily `json:"family,omitempty"`
	State  domain.WorkflowState  `json:"state,omitempty"`

	// Message carries human-readable detail such as an error text.
	Message string `json:"message,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewWorkflowEvent creates an event about a remark. taskID and remarkID may be
// uuid.Nil for checklist-wide events.
func NewWorkflowEvent(eventType EventType, checklistID, taskID, remarkID uuid.UUID) *WorkflowEvent {
	return &WorkflowEvent{
		ID:          uuid.New(),
		Type:        eventType,
		ChecklistID: checklistID,
		TaskID:      taskID,
		RemarkID:    remarkID,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithTag records the remark's tag after the change.
func (e *WorkflowEvent) WithTag(tag *domain.WorkflowTag) *WorkflowEvent {
	if tag != nil {
		e.Family = tag.Family
		e.State = tag.State
	}
	return e
}

// WithMessage attaches detail text.
func (e *WorkflowEvent) WithMessage(msg string) *WorkflowEvent {
	e.Message = msg
	return e
}

// MarshalData renders the event as a single line of JSON for an event stream.
func (e *WorkflowEvent) MarshalData() ([]byte, error) {
	return json.Marshal(e)
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *WorkflowEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *WorkflowEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *WorkflowEvent) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *WorkflowEvent) error {
	return f(ctx, event)
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *WorkflowEvent) error { return nil }
