package generation

import (
	"context"
	"strings"
	"time"

	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/thread"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// HistoryEntry is one remark of the task's thread, in display order.
type HistoryEntry struct {
	Author    string
	Text      string
	Depth     int
	Timestamp time.Time
}

// Request is everything an executor is told about one execution.
type Request struct {
	// Instruction is the payload of the executing remark.
	Instruction string
	// TaskDescription is the description of the task owning the remark.
	TaskDescription string
	// History is the task's flattened remark thread.
	History []HistoryEntry
	// Attachments are context documents of the task.
	Attachments []domain.Attachment
}

// Validate checks that the request can be executed.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Instruction) == "" {
		return ErrEmptyInstruction
	}
	return nil
}

// Executor runs an instruction against an external AI service.
type Executor interface {
	// Execute returns the result text. Errors are recorded on the remark
	// as a failure; they never reach the user who enqueued the work.
	Execute(ctx context.Context, req Request) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req Request) (string, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// NewRequest assembles the request for executing remark r on task t. The
// history is the task's whole thread in display order, tags included.
func NewRequest(t *domain.Task, r *domain.Remark) Request {
	entries := thread.Flatten(t.Remarks)
	history := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		history = append(history, HistoryEntry{
			Author:    e.Remark.Author,
			Text:      workflow.RemarkText(e.Remark),
			Depth:     e.Depth,
			Timestamp: e.Remark.Timestamp,
		})
	}

	attachments := make([]domain.Attachment, len(t.Attachments))
	copy(attachments, t.Attachments)

	return Request{
		Instruction:     r.Body,
		TaskDescription: t.Description,
		History:         history,
		Attachments:     attachments,
	}
}
