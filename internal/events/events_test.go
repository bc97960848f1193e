package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkflowEvent(t *testing.T) {
	t.Parallel()

	checklistID, taskID, remarkID := uuid.New(), uuid.New(), uuid.New()

	event := NewWorkflowEvent(EventExecutionFailed, checklistID, taskID, remarkID).
		WithTag(&domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateFailed}).
		WithMessage("model unavailable")

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventExecutionFailed, event.Type)
	assert.Equal(t, checklistID, event.ChecklistID)
	assert.Equal(t, taskID, event.TaskID)
	assert.Equal(t, remarkID, event.RemarkID)
	assert.Equal(t, domain.FamilyAITodo, event.Family)
	assert.Equal(t, domain.StateFailed, event.State)
	assert.Equal(t, "model unavailable", event.Message)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	data, err := event.MarshalData()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"execution_failed"`)
	assert.Contains(t, string(data), `"state":"failed"`)
}

func TestWithTag_Nil(t *testing.T) {
	t.Parallel()

	event := NewWorkflowEvent(EventChecklistChanged, uuid.New(), uuid.Nil, uuid.Nil).WithTag(nil)
	assert.Empty(t, event.Family)
	assert.Empty(t, event.State)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *WorkflowEvent
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *WorkflowEvent) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestEventHandlerFunc(t *testing.T) {
	t.Parallel()

	var got *WorkflowEvent
	handler := EventHandlerFunc(func(_ context.Context, e *WorkflowEvent) error {
		got = e
		return errors.New("boom")
	})

	event := NewWorkflowEvent(EventRemarkEnqueued, uuid.New(), uuid.New(), uuid.New())
	err := handler.HandleEvent(context.Background(), event)
	assert.EqualError(t, err, "boom")
	assert.Same(t, event, got)

	assert.NoError(t, NopEmitter{}.EmitEvent(context.Background(), event))
}
