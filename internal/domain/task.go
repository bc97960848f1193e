package domain

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// TaskStatus represents the completion state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusComplete   TaskStatus = "complete"
)

// Priority is the enumerated urgency of a task.
type Priority string

// Possible priority values
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Task-specific validation errors
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskDescription = errors.New("task description cannot be empty")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidDueDate       = errors.New("invalid due date")
)

// ParsePriority maps a case-insensitive priority name to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// Attachment is a context document handed to the executor alongside a task.
type Attachment struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

// Task is a unit of work on a checklist together with its discussion.
type Task struct {
	ID          uuid.UUID    `json:"id" yaml:"id"`
	Description string       `json:"description" yaml:"description"`
	Status      TaskStatus   `json:"status" yaml:"status"`
	Assignee    string       `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Due         civil.Date   `json:"due" yaml:"due"`
	Priority    Priority     `json:"priority" yaml:"priority"`
	Remarks     []*Remark    `json:"remarks" yaml:"remarks"`
	Attachments []Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// NewTask creates a pending task with no remarks.
func NewTask(description string, priority Priority, due civil.Date, assignee string) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		Description: strings.TrimSpace(description),
		Status:      TaskStatusPending,
		Assignee:    strings.TrimSpace(assignee),
		Due:         due,
		Priority:    priority,
		Remarks:     []*Remark{},
	}

	if IsPlaceholderAssignee(task.Assignee) {
		task.Assignee = ""
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task's own fields and every remark it holds.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyTaskDescription
	}
	if err := checkLine("description", t.Description); err != nil {
		return err
	}

	if t.Assignee != "" {
		if err := checkLine("assignee", t.Assignee); err != nil {
			return err
		}
		if strings.Contains(t.Assignee, "*") {
			return fmt.Errorf("%w: assignee may not contain '*'", ErrInvalidText)
		}
		if IsPlaceholderAssignee(t.Assignee) {
			return fmt.Errorf("%w: %q is reserved for tasks without an assignee", ErrInvalidText, t.Assignee)
		}
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return ErrInvalidPriority
	}

	if !t.Due.IsValid() {
		return ErrInvalidDueDate
	}

	for _, r := range t.Remarks {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("remark %s: %w", r.ID, err)
		}
	}

	return nil
}

// IsComplete reports whether the task is checked off.
func (t *Task) IsComplete() bool {
	return t.Status == TaskStatusComplete
}

// ToggleComplete flips the task between complete and pending.
func (t *Task) ToggleComplete() {
	if t.IsComplete() {
		t.Status = TaskStatusPending
		return
	}
	t.Status = TaskStatusComplete
}

// FindRemark returns the remark with the given ID, or nil.
func (t *Task) FindRemark(id uuid.UUID) *Remark {
	for _, r := range t.Remarks {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// AddRemark appends a remark. A parent, when named, must already belong to
// this task; since the parent exists before the child, the links form a forest.
func (t *Task) AddRemark(r *Remark) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if r.HasParent() && t.FindRemark(*r.ParentID) == nil {
		return fmt.Errorf("%w: %s", ErrParentNotFound, *r.ParentID)
	}

	if t.FindRemark(r.ID) != nil {
		return fmt.Errorf("%w: duplicate remark ID %s", ErrValidation, r.ID)
	}

	t.Remarks = append(t.Remarks, r)
	return nil
}

// RemoveRemark deletes a remark together with every remark beneath it.
func (t *Task) RemoveRemark(id uuid.UUID) error {
	if t.FindRemark(id) == nil {
		return ErrRemarkNotFound
	}

	doomed := map[uuid.UUID]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, r := range t.Remarks {
			if !doomed[r.ID] && r.HasParent() && doomed[*r.ParentID] {
				doomed[r.ID] = true
				changed = true
			}
		}
	}

	kept := t.Remarks[:0]
	for _, r := range t.Remarks {
		if !doomed[r.ID] {
			kept = append(kept, r)
		}
	}
	t.Remarks = kept
	return nil
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusComplete:
		return true
	default:
		return false
	}
}
