package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Checklist-specific validation errors
var (
	ErrEmptyChecklistID   = errors.New("checklist ID cannot be empty")
	ErrEmptyChecklistName = errors.New("checklist name cannot be empty")
)

// Checklist is the top-level collaborative document. It owns its tasks, and
// every remark and workflow tag lives inside those tasks, so the whole
// checklist is loaded and saved as one unit.
type Checklist struct {
	ID    uuid.UUID `json:"id" yaml:"id"`
	Name  string    `json:"name" yaml:"name"`
	Tasks []*Task   `json:"tasks" yaml:"tasks"`

	// Version is the optimistic concurrency token maintained by stores.
	Version   int64     `json:"version" yaml:"version"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewChecklist creates an empty checklist.
func NewChecklist(name string) (*Checklist, error) {
	checklist := &Checklist{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Tasks:     []*Task{},
		UpdatedAt: time.Now().UTC(),
	}

	if err := checklist.Validate(); err != nil {
		return nil, err
	}

	return checklist, nil
}

// Validate checks the checklist and every task in it.
func (c *Checklist) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyChecklistID
	}

	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyChecklistName
	}
	if err := checkLine("name", c.Name); err != nil {
		return err
	}

	for _, t := range c.Tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// FindTask returns the task with the given ID, or nil.
func (c *Checklist) FindTask(id uuid.UUID) *Task {
	for _, t := range c.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// AddTask appends a task to the end of the checklist.
func (c *Checklist) AddTask(t *Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	c.Tasks = append(c.Tasks, t)
	return nil
}

// RemoveTask deletes a task and, with it, all of its remarks.
func (c *Checklist) RemoveTask(id uuid.UUID) error {
	for i, t := range c.Tasks {
		if t.ID == id {
			c.Tasks = append(c.Tasks[:i], c.Tasks[i+1:]...)
			return nil
		}
	}
	return ErrTaskNotFound
}

// Locate resolves a task and one of its remarks.
func (c *Checklist) Locate(taskID, remarkID uuid.UUID) (*Task, *Remark, error) {
	task := c.FindTask(taskID)
	if task == nil {
		return nil, nil, ErrTaskNotFound
	}
	remark := task.FindRemark(remarkID)
	if remark == nil {
		return task, nil, ErrRemarkNotFound
	}
	return task, remark, nil
}

// IncompleteTasks returns the tasks that are not complete, in stored order.
func (c *Checklist) IncompleteTasks() []*Task {
	var out []*Task
	for _, t := range c.Tasks {
		if !t.IsComplete() {
			out = append(out, t)
		}
	}
	return out
}

// CompletedTasks returns the completed tasks, in stored order.
func (c *Checklist) CompletedTasks() []*Task {
	var out []*Task
	for _, t := range c.Tasks {
		if t.IsComplete() {
			out = append(out, t)
		}
	}
	return out
}

// RemarksInState returns every remark of the checklist tagged with the given
// family and state, paired with its task.
func (c *Checklist) RemarksInState(family WorkflowFamily, state WorkflowState) []TaskRemark {
	var out []TaskRemark
	for _, t := range c.Tasks {
		for _, r := range t.Remarks {
			if r.Workflow.Is(family, state) {
				out = append(out, TaskRemark{Task: t, Remark: r})
			}
		}
	}
	return out
}

// RunningRemark returns the first running remark of the checklist, or nil
// when nothing is running.
func (c *Checklist) RunningRemark() *Remark {
	for _, t := range c.Tasks {
		for _, r := range t.Remarks {
			if r.Workflow != nil && r.Workflow.State == StateRunning {
				return r
			}
		}
	}
	return nil
}

// TaskRemark pairs a remark with the task that owns it.
type TaskRemark struct {
	Task   *Task
	Remark *Remark
}

// Clone returns a deep copy of the checklist, so callers can mutate a loaded
// document without touching a shared instance.
func (c *Checklist) Clone() *Checklist {
	out := *c
	out.Tasks = make([]*Task, len(c.Tasks))
	for i, t := range c.Tasks {
		task := *t
		task.Remarks = make([]*Remark, len(t.Remarks))
		for j, r := range t.Remarks {
			task.Remarks[j] = r.Clone()
		}
		task.Attachments = append([]Attachment(nil), t.Attachments...)
		out.Tasks[i] = &task
	}
	return &out
}
