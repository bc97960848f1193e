package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotAITodo indicates an enqueue request for a remark that is not an ai-todo.
	// API layer should map this to HTTP 409 Conflict.
	ErrNotAITodo = errors.New("remark is not an ai-todo")

	// ErrInvalidPromptTarget indicates a prompt execution was requested on a
	// remark that is not the result of a completed execution.
	// API layer should map this to HTTP 409 Conflict.
	ErrInvalidPromptTarget = errors.New("prompt executions can only follow the result of a completed execution")

	// ErrReservedWorkflowTag indicates a user tried to author a remark in a
	// workflow state only the engine may write.
	// API layer should map this to HTTP 400 Bad Request.
	ErrReservedWorkflowTag = errors.New("only pending ai-todo remarks can be written directly")

	// ErrQueueUnavailable indicates the remark was recorded but the scheduler
	// could not take it. It is picked up again when the scheduler restarts.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrQueueUnavailable = errors.New("execution queue unavailable")

	// ErrNoIdentity indicates the acting user could not be determined.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrNoIdentity = errors.New("acting user is unknown")
)

// ServiceError is a custom error type for checklist service errors.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checklist service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("checklist service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
