// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrTaskNotFound is returned when a task ID does not resolve inside a checklist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrRemarkNotFound is returned when a remark ID does not resolve inside a task.
	ErrRemarkNotFound = errors.New("remark not found")

	// ErrParentNotFound is returned when a new remark names a parent that is
	// not a remark of the same task.
	ErrParentNotFound = errors.New("parent remark not found in task")

	// ErrInvalidText is returned when a name, description, assignee or
	// author holds characters the checklist document form gives meaning to.
	ErrInvalidText = errors.New("invalid text")

	// ErrInvalidWorkflowTag is returned when a family/state pair is not part
	// of the workflow grammar.
	ErrInvalidWorkflowTag = errors.New("invalid workflow tag")
)
