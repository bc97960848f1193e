package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/service"
	"github.com/phrazzld/checklist-api/internal/task"
)

// MockChecklistService implements service.ChecklistService for testing
type MockChecklistService struct {
	CreateChecklistFn        func(ctx context.Context, name string) (*domain.Checklist, error)
	GetChecklistFn           func(ctx context.Context, id uuid.UUID) (*domain.Checklist, error)
	ListChecklistsFn         func(ctx context.Context) ([]*domain.Checklist, error)
	DeleteChecklistFn        func(ctx context.Context, id uuid.UUID) error
	ImportMarkdownFn         func(ctx context.Context, text string) (*domain.Checklist, error)
	ExportMarkdownFn         func(ctx context.Context, id uuid.UUID) (string, error)
	AddTaskFn                func(ctx context.Context, checklistID uuid.UUID, input service.TaskInput) (*domain.Task, error)
	ToggleTaskFn             func(ctx context.Context, checklistID, taskID uuid.UUID) (*domain.Task, error)
	DeleteTaskFn             func(ctx context.Context, checklistID, taskID uuid.UUID) error
	ThreadFn                 func(ctx context.Context, checklistID, taskID uuid.UUID) ([]service.ThreadEntry, error)
	AddRemarkFn              func(ctx context.Context, checklistID, taskID uuid.UUID, input service.RemarkInput) (*domain.Remark, error)
	DeleteRemarkFn           func(ctx context.Context, checklistID, taskID, remarkID uuid.UUID) error
	EnqueueTodoFn            func(ctx context.Context, checklistID, taskID, remarkID uuid.UUID) (*domain.Remark, error)
	RequestPromptExecutionFn func(ctx context.Context, checklistID, taskID, resultID uuid.UUID, prompt string) (*domain.Remark, error)
	QueueStatusFn            func(ctx context.Context) task.Status

	// Default return values
	Checklist    *domain.Checklist
	Task         *domain.Task
	Remark       *domain.Remark
	DefaultError error
}

var _ service.ChecklistService = (*MockChecklistService)(nil)

// CreateChecklist implements service.ChecklistService
func (m *MockChecklistService) CreateChecklist(ctx context.Context, name string) (*domain.Checklist, error) {
	if m.CreateChecklistFn != nil {
		return m.CreateChecklistFn(ctx, name)
	}
	return m.Checklist, m.DefaultError
}

// GetChecklist implements service.ChecklistService
func (m *MockChecklistService) GetChecklist(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	if m.GetChecklistFn != nil {
		return m.GetChecklistFn(ctx, id)
	}
	return m.Checklist, m.DefaultError
}

// ListChecklists implements service.ChecklistService
func (m *MockChecklistService) ListChecklists(ctx context.Context) ([]*domain.Checklist, error) {
	if m.ListChecklistsFn != nil {
		return m.ListChecklistsFn(ctx)
	}
	if m.Checklist == nil {
		return nil, m.DefaultError
	}
	return []*domain.Checklist{m.Checklist}, m.DefaultError
}

// DeleteChecklist implements service.ChecklistService
func (m *MockChecklistService) DeleteChecklist(ctx context.Context, id uuid.UUID) error {
	if m.DeleteChecklistFn != nil {
		return m.DeleteChecklistFn(ctx, id)
	}
	return m.DefaultError
}

// ImportMarkdown implements service.ChecklistService
func (m *MockChecklistService) ImportMarkdown(ctx context.Context, text string) (*domain.Checklist, error) {
	if m.ImportMarkdownFn != nil {
		return m.ImportMarkdownFn(ctx, text)
	}
	return m.Checklist, m.DefaultError
}

// ExportMarkdown implements service.ChecklistService
func (m *MockChecklistService) ExportMarkdown(ctx context.Context, id uuid.UUID) (string, error) {
	if m.ExportMarkdownFn != nil {
		return m.ExportMarkdownFn(ctx, id)
	}
	return "", m.DefaultError
}

// AddTask implements service.ChecklistService
func (m *MockChecklistService) AddTask(
	ctx context.Context,
	checklistID uuid.UUID,
	input service.TaskInput,
) (*domain.Task, error) {
	if m.AddTaskFn != nil {
		return m.AddTaskFn(ctx, checklistID, input)
	}
	return m.Task, m.DefaultError
}

// ToggleTask implements service.ChecklistService
func (m *MockChecklistService) ToggleTask(ctx context.Context, checklistID, taskID uuid.UUID) (*domain.Task, error) {
	if m.ToggleTaskFn != nil {
		return m.ToggleTaskFn(ctx, checklistID, taskID)
	}
	return m.Task, m.DefaultError
}

// DeleteTask implements service.ChecklistService
func (m *MockChecklistService) DeleteTask(ctx context.Context, checklistID, taskID uuid.UUID) error {
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, checklistID, taskID)
	}
	return m.DefaultError
}

// DeleteRemark implements service.ChecklistService
func (m *MockChecklistService) DeleteRemark(ctx context.Context, checklistID, taskID, remarkID uuid.UUID) error {
	if m.DeleteRemarkFn != nil {
		return m.DeleteRemarkFn(ctx, checklistID, taskID, remarkID)
	}
	return m.DefaultError
}

// Thread implements service.ChecklistService
func (m *MockChecklistService) Thread(ctx context.Context, checklistID, taskID uuid.UUID) ([]service.ThreadEntry, error) {
	if m.ThreadFn != nil {
		return m.ThreadFn(ctx, checklistID, taskID)
	}
	return nil, m.DefaultError
}

// AddRemark implements service.ChecklistService
func (m *MockChecklistService) AddRemark(
	ctx context.Context,
	checklistID, taskID uuid.UUID,
	input service.RemarkInput,
) (*domain.Remark, error) {
	if m.AddRemarkFn != nil {
		return m.AddRemarkFn(ctx, checklistID, taskID, input)
	}
	return m.Remark, m.DefaultError
}

// EnqueueTodo implements service.ChecklistService
func (m *MockChecklistService) EnqueueTodo(
	ctx context.Context,
	checklistID, taskID, remarkID uuid.UUID,
) (*domain.Remark, error) {
	if m.EnqueueTodoFn != nil {
		return m.EnqueueTodoFn(ctx, checklistID, taskID, remarkID)
	}
	return m.Remark, m.DefaultError
}

// RequestPromptExecution implements service.ChecklistService
func (m *MockChecklistService) RequestPromptExecution(
	ctx context.Context,
	checklistID, taskID, resultID uuid.UUID,
	prompt string,
) (*domain.Remark, error) {
	if m.RequestPromptExecutionFn != nil {
		return m.RequestPromptExecutionFn(ctx, checklistID, taskID, resultID, prompt)
	}
	return m.Remark, m.DefaultError
}

// QueueStatus implements service.ChecklistService
func (m *MockChecklistService) QueueStatus(ctx context.Context) task.Status {
	if m.QueueStatusFn != nil {
		return m.QueueStatusFn(ctx)
	}
	return task.Status{Queued: []task.Entry{}}
}
