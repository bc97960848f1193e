package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/checklist-api/internal/api/shared"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/markdown"
	"github.com/phrazzld/checklist-api/internal/service"
	"github.com/phrazzld/checklist-api/internal/service/auth"
	"github.com/phrazzld/checklist-api/internal/store"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, service.ErrNoIdentity):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrRemarkNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrNotAITodo),
		errors.Is(err, service.ErrInvalidPromptTarget),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrCooldown),
		errors.Is(err, workflow.ErrNotTagged),
		errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrParentNotFound),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidWorkflowTag),
		errors.Is(err, service.ErrReservedWorkflowTag),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	// Recorded, but not scheduled
	case errors.Is(err, service.ErrQueueUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrNoIdentity):
		return "Acting user is unknown"

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return "Checklist not found"

	case errors.Is(err, domain.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrRemarkNotFound):
		return "Remark not found"

	// Conflict errors
	case errors.Is(err, service.ErrNotAITodo):
		return "Only ai-todo remarks can be enqueued"

	case errors.Is(err, service.ErrInvalidPromptTarget):
		return "Prompt executions must reply to the result of a completed execution"

	case errors.Is(err, workflow.ErrCooldown):
		return "Retry cooldown has not elapsed"

	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNotTagged):
		return "Remark cannot be enqueued in its current state"

	case errors.Is(err, store.ErrVersionConflict):
		return "Checklist was modified concurrently, retry the request"

	case errors.Is(err, store.ErrDuplicate):
		return "Checklist already exists"

	// Bad request errors
	case errors.Is(err, markdown.ErrMissingTitle):
		return "Markdown must start with a \"# <name>\" title"

	case errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid format"

	case errors.Is(err, domain.ErrEmptyContent):
		return "Remark text cannot be empty"

	case errors.Is(err, domain.ErrParentNotFound):
		return "Parent remark not found in task"

	case errors.Is(err, service.ErrReservedWorkflowTag):
		return "Only pending ai-todo remarks can be written directly"

	case errors.Is(err, domain.ErrInvalidPriority):
		return "Priority must be High, Medium or Low"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidWorkflowTag),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, service.ErrQueueUnavailable):
		return "Remark recorded but the execution queue is unavailable; it will run after restart"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'CreateTaskRequest.Description' Error:Field validation
	// for 'Description' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "must be a UUID"
	case "datetime":
		return "must be a YYYY-MM-DD date"
	default:
		return "validation failed"
	}
}
