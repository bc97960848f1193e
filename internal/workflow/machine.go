package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/checklist-api/internal/domain"
)

// Event drives a workflow transition.
type Event string

// Workflow events
const (
	// EventEnqueue is the user handing an ai-todo to the execution queue,
	// including manual retries of completed or failed runs.
	EventEnqueue Event = "enqueue"

	// EventDequeue is the scheduler starting the execution.
	EventDequeue Event = "dequeue"

	// EventSucceed records a result.
	EventSucceed Event = "succeed"

	// EventFail records an execution error.
	EventFail Event = "fail"

	// EventReset is the stale sweep returning an abandoned run to pending.
	EventReset Event = "reset"
)

// Common errors returned by the state machine
var (
	// ErrInvalidTransition is returned when an event is not allowed in the
	// tag's current state.
	ErrInvalidTransition = errors.New("invalid workflow transition")

	// ErrNotTagged is returned when a transition is applied to a plain remark.
	ErrNotTagged = errors.New("remark carries no workflow tag")

	// ErrCooldown is returned when a completed ai-todo is re-enqueued before
	// its retry cooldown has elapsed.
	ErrCooldown = errors.New("retry cooldown has not elapsed")
)

type edge struct {
	from  domain.WorkflowState
	event Event
}

var transitions = map[domain.WorkflowFamily]map[edge]domain.WorkflowState{
	domain.FamilyAITodo: {
		{domain.StatePending, EventEnqueue}:   domain.StateQueued,
		{domain.StateQueued, EventDequeue}:    domain.StateRunning,
		{domain.StateRunning, EventSucceed}:   domain.StateCompleted,
		{domain.StateRunning, EventFail}:      domain.StateFailed,
		{domain.StateRunning, EventReset}:     domain.StatePending,
		{domain.StateFailed, EventEnqueue}:    domain.StateQueued,
		{domain.StateCompleted, EventEnqueue}: domain.StateQueued,
	},
	domain.FamilyPromptExecution: {
		{domain.StatePending, EventDequeue}: domain.StateRunning,
		{domain.StateRunning, EventSucceed}: domain.StateCompleted,
		{domain.StateRunning, EventFail}:    domain.StateFailed,
		{domain.StateRunning, EventReset}:   domain.StatePending,
	},
}

// Transition returns the state the tag moves to on event. It is a pure
// table lookup; the retry cooldown is checked by Apply.
func Transition(tag domain.WorkflowTag, event Event) (domain.WorkflowState, error) {
	table, ok := transitions[tag.Family]
	if !ok {
		return "", fmt.Errorf("%w: unknown family %q", ErrInvalidTransition, tag.Family)
	}

	next, ok := table[edge{from: tag.State, event: event}]
	if !ok {
		return "", fmt.Errorf("%w: %s|%s on %s", ErrInvalidTransition, tag.Family, tag.State, event)
	}

	return next, nil
}

// CanTransition reports whether event is allowed in the tag's current state.
func CanTransition(tag domain.WorkflowTag, event Event) bool {
	_, err := Transition(tag, event)
	return err == nil
}

// IsDequeueable reports whether the scheduler may start the remark.
func IsDequeueable(tag *domain.WorkflowTag) bool {
	return tag != nil && CanTransition(*tag, EventDequeue)
}

// Policy holds the time-based parameters of the state machine.
type Policy struct {
	// RetryCooldown is how long a completed ai-todo must rest before it can
	// be enqueued again.
	RetryCooldown time.Duration

	// StaleAfter is how long a remark may stay running before the sweep
	// resets it.
	StaleAfter time.Duration
}

// Default policy values
const (
	DefaultRetryCooldown = 5 * time.Minute
	DefaultStaleAfter    = 30 * time.Minute
)

// DefaultPolicy returns the standard cooldown and staleness threshold.
func DefaultPolicy() Policy {
	return Policy{
		RetryCooldown: DefaultRetryCooldown,
		StaleAfter:    DefaultStaleAfter,
	}
}

// Apply moves the remark's tag along event and stamps StateChangedAt.
// Re-enqueueing a completed ai-todo is refused with ErrCooldown until the
// policy's cooldown has elapsed.
func Apply(r *domain.Remark, event Event, now time.Time, policy Policy) (domain.WorkflowState, error) {
	if r.Workflow == nil {
		return "", ErrNotTagged
	}

	next, err := Transition(*r.Workflow, event)
	if err != nil {
		return "", err
	}

	if event == EventEnqueue && !RetryEligible(r, now, policy.RetryCooldown) {
		return "", fmt.Errorf("%w: eligible at %s", ErrCooldown,
			RetryAvailableAt(r, policy.RetryCooldown).Format(time.RFC3339))
	}

	r.Workflow.State = next
	r.StateChangedAt = now.UTC()
	return next, nil
}

// Force sets the remark's state without consulting the transition table.
// The scheduler uses it to record a late result after a sweep has already
// moved the remark on: the last write wins.
func Force(r *domain.Remark, state domain.WorkflowState, now time.Time) error {
	if r.Workflow == nil {
		return ErrNotTagged
	}
	if !domain.IsValidState(r.Workflow.Family, state) {
		return fmt.Errorf("%w: %s|%s", domain.ErrInvalidWorkflowTag, r.Workflow.Family, state)
	}
	r.Workflow.State = state
	r.StateChangedAt = now.UTC()
	return nil
}
