package mocks

import (
	"sync"

	"github.com/phrazzld/checklist-api/internal/service"
	"github.com/phrazzld/checklist-api/internal/task"
)

// MockScheduler implements service.Scheduler and records enqueued entries.
type MockScheduler struct {
	EnqueueFn func(entry task.Entry) error
	StatusFn  func() task.Status

	mu      sync.Mutex
	entries []task.Entry
}

var _ service.Scheduler = (*MockScheduler)(nil)

// Enqueue implements service.Scheduler
func (m *MockScheduler) Enqueue(entry task.Entry) error {
	if m.EnqueueFn != nil {
		if err := m.EnqueueFn(entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return nil
}

// Status implements service.Scheduler
func (m *MockScheduler) Status() task.Status {
	if m.StatusFn != nil {
		return m.StatusFn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return task.Status{Queued: append([]task.Entry{}, m.entries...)}
}

// Entries returns the accepted entries in enqueue order.
func (m *MockScheduler) Entries() []task.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.Entry(nil), m.entries...)
}
