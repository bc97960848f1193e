package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/checklist-api/internal/generation"
)

// MockExecutor implements generation.Executor for testing
type MockExecutor struct {
	// ExecuteFn allows test cases to mock the Execute behavior
	ExecuteFn func(ctx context.Context, req generation.Request) (string, error)

	// Default response values
	Result string
	Err    error

	mu       sync.Mutex
	requests []generation.Request
}

var _ generation.Executor = (*MockExecutor)(nil)

// Execute implements the generation.Executor interface
func (m *MockExecutor) Execute(ctx context.Context, req generation.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, req)
	}
	return m.Result, m.Err
}

// Requests returns every request passed to Execute, in call order.
func (m *MockExecutor) Requests() []generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Request(nil), m.requests...)
}
