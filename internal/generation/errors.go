package generation

import "errors"

// Common errors returned by executors
var (
	// ErrExecutionFailed is returned when execution fails for any general reason
	ErrExecutionFailed = errors.New("execution failed")

	// ErrEmptyInstruction is returned when a request carries no instruction
	ErrEmptyInstruction = errors.New("instruction cannot be empty")

	// ErrInvalidResponse is returned when the LLM response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during execution")

	// ErrInvalidConfig is returned when the executor configuration is invalid
	ErrInvalidConfig = errors.New("invalid executor configuration")
)
