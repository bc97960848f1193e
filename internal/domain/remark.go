package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reserved remark authors.
const (
	// SystemAuthor authors remarks written by the engine itself (resets,
	// failure reports) and imported remarks that name no author.
	SystemAuthor = "system"

	// AssistantAuthor authors remarks carrying execution results.
	AssistantAuthor = "ai-assistant"
)

// Remark-specific validation errors
var (
	ErrEmptyRemarkID     = errors.New("remark ID cannot be empty")
	ErrEmptyRemarkAuthor = errors.New("remark author cannot be empty")
	ErrSelfParent        = errors.New("remark cannot be its own parent")
)

// WorkflowFamily names one of the asynchronous lifecycles a remark can record.
type WorkflowFamily string

// Workflow families
const (
	// FamilyAITodo is an instruction a user hands to the AI for execution.
	FamilyAITodo WorkflowFamily = "ai-todo"

	// FamilyPromptExecution is a follow-up run of a refined prompt, created
	// beneath the result of a completed ai-todo.
	FamilyPromptExecution WorkflowFamily = "prompt-execution"
)

// WorkflowState is a lifecycle state inside a workflow family.
type WorkflowState string

// Workflow states. Not every state is valid for every family; see ValidStates.
const (
	StatePending   WorkflowState = "pending"
	StateQueued    WorkflowState = "queued"
	StateRunning   WorkflowState = "running"
	StateCompleted WorkflowState = "completed"
	StateFailed    WorkflowState = "failed"
)

var familyStates = map[WorkflowFamily][]WorkflowState{
	FamilyAITodo:          {StatePending, StateQueued, StateRunning, StateCompleted, StateFailed},
	FamilyPromptExecution: {StatePending, StateRunning, StateCompleted, StateFailed},
}

// ValidStates returns the states a family may be in, in lifecycle order.
// It returns nil for an unknown family.
func ValidStates(family WorkflowFamily) []WorkflowState {
	states := familyStates[family]
	if states == nil {
		return nil
	}
	out := make([]WorkflowState, len(states))
	copy(out, states)
	return out
}

// IsValidState reports whether state belongs to family.
func IsValidState(family WorkflowFamily, state WorkflowState) bool {
	for _, s := range familyStates[family] {
		if s == state {
			return true
		}
	}
	return false
}

// WorkflowTag is the tagged variant attached to a remark that records an
// execution lifecycle. Its text form ("[family|state] ") exists only at the
// serialization boundary.
type WorkflowTag struct {
	Family WorkflowFamily `json:"family" yaml:"family"`
	State  WorkflowState  `json:"state" yaml:"state"`
}

// Validate checks that the family/state pair is part of the grammar.
func (t *WorkflowTag) Validate() error {
	if !IsValidState(t.Family, t.State) {
		return fmt.Errorf("%w: %s|%s", ErrInvalidWorkflowTag, t.Family, t.State)
	}
	return nil
}

// Is reports whether the tag has the given family and state.
func (t *WorkflowTag) Is(family WorkflowFamily, state WorkflowState) bool {
	return t != nil && t.Family == family && t.State == state
}

// Remark is a timestamped, authored text entry attached to a task.
type Remark struct {
	ID uuid.UUID `json:"id" yaml:"id"`

	// Body is the free text of a plain remark, or the payload (instruction or
	// result summary) of a tagged one.
	Body string `json:"body" yaml:"body"`

	// Workflow is nil for plain remarks.
	Workflow *WorkflowTag `json:"workflow,omitempty" yaml:"workflow,omitempty"`

	Author    string     `json:"author" yaml:"author"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`

	// StateChangedAt is the time of the last workflow state write. The zero
	// value means the state has not changed since Timestamp.
	StateChangedAt time.Time `json:"state_changed_at,omitempty" yaml:"state_changed_at,omitempty"`
}

// NewRemark creates a plain or tagged remark stamped with the given time.
// A non-nil parentID links the remark beneath another remark of the same task;
// that link is checked by Task.AddRemark.
func NewRemark(body string, tag *WorkflowTag, author string, at time.Time, parentID *uuid.UUID) (*Remark, error) {
	remark := &Remark{
		ID:        uuid.New(),
		Body:      NormalizeNewlines(body),
		Workflow:  tag,
		Author:    author,
		Timestamp: at.UTC(),
		ParentID:  parentID,
	}

	if err := remark.Validate(); err != nil {
		return nil, err
	}

	return remark, nil
}

// Validate checks if the Remark has valid data.
func (r *Remark) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRemarkID
	}

	if strings.TrimSpace(r.Author) == "" {
		return ErrEmptyRemarkAuthor
	}
	if err := checkLine("author", r.Author); err != nil {
		return err
	}
	if strings.ContainsAny(r.Author, "()") {
		return fmt.Errorf("%w: author may not contain parentheses", ErrInvalidText)
	}

	if r.Workflow == nil && strings.TrimSpace(r.Body) == "" {
		return ErrEmptyContent
	}
	if err := checkBody(r.Body); err != nil {
		return err
	}

	if r.Workflow != nil {
		if err := r.Workflow.Validate(); err != nil {
			return err
		}
	}

	if r.ParentID != nil && *r.ParentID == r.ID {
		return ErrSelfParent
	}

	return nil
}

// Tagged reports whether the remark carries a workflow tag.
func (r *Remark) Tagged() bool {
	return r.Workflow != nil
}

// HasParent reports whether the remark names a parent.
func (r *Remark) HasParent() bool {
	return r.ParentID != nil && *r.ParentID != uuid.Nil
}

// LastStateChange returns when the workflow state was last written,
// falling back to the remark's own timestamp.
func (r *Remark) LastStateChange() time.Time {
	if r.StateChangedAt.IsZero() {
		return r.Timestamp
	}
	return r.StateChangedAt
}

// Clone returns a deep copy of the remark.
func (r *Remark) Clone() *Remark {
	c := *r
	if r.Workflow != nil {
		tag := *r.Workflow
		c.Workflow = &tag
	}
	if r.ParentID != nil {
		parent := *r.ParentID
		c.ParentID = &parent
	}
	return &c
}
