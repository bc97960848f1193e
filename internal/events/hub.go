package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultSubscriberBuffer is the per-subscriber channel capacity used when
// NewHub is given a non-positive size.
const DefaultSubscriberBuffer = 64

type subscriber struct {
	checklistID uuid.UUID
	ch          chan *WorkflowEvent
}

// Hub fans workflow events out to subscribers. Delivery never blocks the
// emitter: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu         sync.RWMutex
	subs       map[*subscriber]struct{}
	bufferSize int
	closed     bool
	logger     *slog.Logger
}

// NewHub creates a hub with the given per-subscriber buffer size.
func NewHub(bufferSize int, logger *slog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:       make(map[*subscriber]struct{}),
		bufferSize: bufferSize,
		logger:     logger.With("component", "event_hub"),
	}
}

// Subscribe returns a channel of events for one checklist, or for every
// checklist when checklistID is uuid.Nil. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(checklistID uuid.UUID) (<-chan *WorkflowEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{checklistID: checklistID, ch: make(chan *WorkflowEvent, h.bufferSize)}
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	h.subs[sub] = struct{}{}

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.ch)
			}
		})
	}
}

// HandleEvent delivers the event to matching subscribers.
func (h *Hub) HandleEvent(_ context.Context, event *WorkflowEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if sub.checklistID != uuid.Nil && sub.checklistID != event.ChecklistID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.logger.Debug("dropping event for slow subscriber",
				"event_id", event.ID,
				"event_type", event.Type)
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
	h.closed = true
}

var _ EventHandler = (*Hub)(nil)
