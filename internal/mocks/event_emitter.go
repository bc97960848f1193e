package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/checklist-api/internal/events"
)

// MockEventEmitter implements events.EventEmitter and records every event.
type MockEventEmitter struct {
	// EmitEventFn allows test cases to mock the EmitEvent behavior
	EmitEventFn func(ctx context.Context, event *events.WorkflowEvent) error

	mu     sync.Mutex
	events []*events.WorkflowEvent
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)

// EmitEvent implements the events.EventEmitter interface
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.WorkflowEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.EmitEventFn != nil {
		return m.EmitEventFn(ctx, event)
	}
	return nil
}

// Events returns the recorded events in emission order.
func (m *MockEventEmitter) Events() []*events.WorkflowEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.WorkflowEvent(nil), m.events...)
}

// Types returns the types of the recorded events in emission order.
func (m *MockEventEmitter) Types() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}
