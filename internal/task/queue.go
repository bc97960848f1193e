package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the Queue
var (
	ErrQueueFull     = errors.New("execution queue is full")
	ErrAlreadyQueued = errors.New("remark is already queued")
	ErrQueueClosed   = errors.New("execution queue is closed")
)

// Entry references a remark awaiting execution. The remark itself lives in
// its checklist; the entry only says where to find it.
type Entry struct {
	ChecklistID uuid.UUID `json:"checklist_id"`
	TaskID      uuid.UUID `json:"task_id"`
	RemarkID    uuid.UUID `json:"remark_id"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Queue is a FIFO of entries with an optional capacity. It is not safe for
// concurrent use; the Scheduler guards its instance.
type Queue struct {
	entries  []Entry
	capacity int
}

// NewQueue returns an empty queue. A capacity of zero or less means
// unbounded.
func NewQueue(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

// Push appends e. A remark can be queued only once at a time.
func (q *Queue) Push(e Entry) error {
	if q.Contains(e.RemarkID) {
		return ErrAlreadyQueued
	}
	if q.capacity > 0 && len(q.entries) >= q.capacity {
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, q.capacity)
	}
	q.entries = append(q.entries, e)
	return nil
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (Entry, bool) {
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	return q.entries[0], true
}

// Pop removes and returns the head.
func (q *Queue) Pop() (Entry, bool) {
	e, ok := q.Peek()
	if !ok {
		return Entry{}, false
	}
	q.entries[0] = Entry{}
	q.entries = q.entries[1:]
	return e, true
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Contains reports whether the remark is queued.
func (q *Queue) Contains(remarkID uuid.UUID) bool {
	for _, e := range q.entries {
		if e.RemarkID == remarkID {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the entries, head first.
func (q *Queue) Snapshot() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}
