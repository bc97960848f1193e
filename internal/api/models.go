package api

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/service"
	"github.com/phrazzld/checklist-api/internal/task"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// CreateChecklistRequest defines the payload for creating an empty checklist.
type CreateChecklistRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// AttachmentRequest is a context document sent with a new task.
type AttachmentRequest struct {
	Name    string `json:"name"    validate:"required,max=200"`
	Content string `json:"content" validate:"max=65536"`
}

// CreateTaskRequest defines the payload for adding a task.
type CreateTaskRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
	// Priority is High, Medium or Low; Medium when empty.
	Priority string `json:"priority" validate:"omitempty,oneof=High Medium Low high medium low"`
	// Due is a YYYY-MM-DD date; today when empty.
	Due         string              `json:"due"         validate:"omitempty,datetime=2006-01-02"`
	Assignee    string              `json:"assignee"    validate:"max=100"`
	Attachments []AttachmentRequest `json:"attachments" validate:"omitempty,dive"`
}

// AddRemarkRequest defines the payload for a new remark. Text may open with
// "[ai-todo|pending] ".
type AddRemarkRequest struct {
	Text     string `json:"text"      validate:"required,max=20000"`
	ParentID string `json:"parent_id" validate:"omitempty,uuid"`
	AITodo   bool   `json:"ai_todo"`
}

// PromptExecutionRequest defines the payload for running a refined prompt
// beneath an execution result.
type PromptExecutionRequest struct {
	Prompt string `json:"prompt" validate:"required,max=20000"`
}

// ChecklistSummaryResponse is one entry of the checklist index.
type ChecklistSummaryResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	TaskCount  int       `json:"task_count"`
	Incomplete int       `json:"incomplete"`
	Running    bool      `json:"running"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChecklistResponse is the JSON form of a whole checklist.
type ChecklistResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Tasks     []TaskResponse `json:"tasks"`
	Version   int64          `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TaskResponse is the JSON form of a task and its remarks in stored order.
type TaskResponse struct {
	ID          uuid.UUID           `json:"id"`
	Description string              `json:"description"`
	Status      domain.TaskStatus   `json:"status"`
	Priority    domain.Priority     `json:"priority"`
	Due         civil.Date          `json:"due"`
	Assignee    string              `json:"assignee,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	Remarks     []RemarkResponse    `json:"remarks"`
}

// RemarkResponse is the JSON form of a remark. Text is the remark as it
// reads in markdown, tag included.
type RemarkResponse struct {
	ID             uuid.UUID             `json:"id"`
	Text           string                `json:"text"`
	Body           string                `json:"body"`
	Family         domain.WorkflowFamily `json:"family,omitempty"`
	State          domain.WorkflowState  `json:"state,omitempty"`
	Author         string                `json:"author"`
	Timestamp      time.Time             `json:"timestamp"`
	ParentID       *uuid.UUID            `json:"parent_id,omitempty"`
	StateChangedAt *time.Time            `json:"state_changed_at,omitempty"`
}

// ThreadEntryResponse is one line of a flattened thread.
type ThreadEntryResponse struct {
	Depth  int            `json:"depth"`
	Remark RemarkResponse `json:"remark"`
}

// QueueStatusResponse is the scheduler snapshot.
type QueueStatusResponse struct {
	InFlight *task.Entry  `json:"in_flight"`
	Queued   []task.Entry `json:"queued"`
	Length   int          `json:"length"`
}

func checklistToSummary(c *domain.Checklist) ChecklistSummaryResponse {
	return ChecklistSummaryResponse{
		ID:         c.ID,
		Name:       c.Name,
		TaskCount:  len(c.Tasks),
		Incomplete: len(c.IncompleteTasks()),
		Running:    c.RunningRemark() != nil,
		Version:    c.Version,
		UpdatedAt:  c.UpdatedAt,
	}
}

func checklistToResponse(c *domain.Checklist) ChecklistResponse {
	tasks := make([]TaskResponse, len(c.Tasks))
	for i, t := range c.Tasks {
		tasks[i] = taskToResponse(t)
	}
	return ChecklistResponse{
		ID:        c.ID,
		Name:      c.Name,
		Tasks:     tasks,
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
	}
}

func taskToResponse(t *domain.Task) TaskResponse {
	remarks := make([]RemarkResponse, len(t.Remarks))
	for i, r := range t.Remarks {
		remarks[i] = remarkToResponse(r)
	}
	return TaskResponse{
		ID:          t.ID,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Due:         t.Due,
		Assignee:    t.Assignee,
		Attachments: t.Attachments,
		Remarks:     remarks,
	}
}

func remarkToResponse(r *domain.Remark) RemarkResponse {
	resp := RemarkResponse{
		ID:        r.ID,
		Text:      workflow.RemarkText(r),
		Body:      r.Body,
		Author:    r.Author,
		Timestamp: r.Timestamp,
		ParentID:  r.ParentID,
	}
	if r.Workflow != nil {
		resp.Family = r.Workflow.Family
		resp.State = r.Workflow.State
	}
	if !r.StateChangedAt.IsZero() {
		changed := r.StateChangedAt
		resp.StateChangedAt = &changed
	}
	return resp
}

func threadToResponse(entries []service.ThreadEntry) []ThreadEntryResponse {
	out := make([]ThreadEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ThreadEntryResponse{Depth: e.Depth, Remark: remarkToResponse(e.Remark)}
	}
	return out
}

func queueToResponse(s task.Status) QueueStatusResponse {
	queued := s.Queued
	if queued == nil {
		queued = []task.Entry{}
	}
	length := len(queued)
	if s.InFlight != nil {
		length++
	}
	return QueueStatusResponse{InFlight: s.InFlight, Queued: queued, Length: length}
}
