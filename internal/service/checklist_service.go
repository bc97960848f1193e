package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/events"
	"github.com/phrazzld/checklist-api/internal/markdown"
	"github.com/phrazzld/checklist-api/internal/platform/logger"
	"github.com/phrazzld/checklist-api/internal/task"
	"github.com/phrazzld/checklist-api/internal/thread"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// Scheduler is the part of the execution queue the service drives.
type Scheduler interface {
	Enqueue(entry task.Entry) error
	Status() task.Status
}

// TaskInput describes a new task. Zero values take defaults: Medium
// priority and a due date of today.
type TaskInput struct {
	Description string
	Priority    domain.Priority
	Due         civil.Date
	Assignee    string
	Attachments []domain.Attachment
}

// RemarkInput describes a new remark. Text may open with a workflow tag;
// AITodo tags the text as a pending ai-todo.
type RemarkInput struct {
	Text     string
	ParentID *uuid.UUID
	AITodo   bool
}

// ThreadEntry is one line of a task's flattened remark thread.
type ThreadEntry struct {
	Remark *domain.Remark
	Depth  int
	// Text is the remark as written in markdown, tag included.
	Text string
}

// ChecklistService provides the checklist use cases.
type ChecklistService interface {
	CreateChecklist(ctx context.Context, name string) (*domain.Checklist, error)
	GetChecklist(ctx context.Context, id uuid.UUID) (*domain.Checklist, error)
	ListChecklists(ctx context.Context) ([]*domain.Checklist, error)
	DeleteChecklist(ctx context.Context, id uuid.UUID) error

	// ImportMarkdown decodes text into a new checklist. A malformed document
	// creates nothing.
	ImportMarkdown(ctx context.Context, text string) (*domain.Checklist, error)
	ExportMarkdown(ctx context.Context, id uuid.UUID) (string, error)

	AddTask(ctx context.Context, checklistID uuid.UUID, input TaskInput) (*domain.Task, error)
	ToggleTask(ctx context.Context, checklistID, taskID uuid.UUID) (*domain.Task, error)
	DeleteTask(ctx context.Context, checklistID, taskID uuid.UUID) error

	// Thread returns the task's remarks in display order.
	Thread(ctx context.Context, checklistID, taskID uuid.UUID) ([]ThreadEntry, error)

	// AddRemark appends a remark authored by the acting user.
	AddRemark(ctx context.Context, checklistID, taskID uuid.UUID, input RemarkInput) (*domain.Remark, error)

	// DeleteRemark removes a remark together with its replies. A queued
	// remark removed this way is dropped when the scheduler reaches it, and
	// the result of a running one is discarded.
	DeleteRemark(ctx context.Context, checklistID, taskID, remarkID uuid.UUID) error

	// EnqueueTodo moves an ai-todo to queued and hands it to the scheduler.
	// An ai-todo that is already queued is handed to the scheduler again.
	EnqueueTodo(ctx context.Context, checklistID, taskID, remarkID uuid.UUID) (*domain.Remark, error)

	// RequestPromptExecution creates a pending prompt execution beneath the
	// result remark resultID and hands it to the scheduler.
	RequestPromptExecution(
		ctx context.Context,
		checklistID, taskID, resultID uuid.UUID,
		prompt string,
	) (*domain.Remark, error)

	// QueueStatus returns the scheduler's in-flight and waiting entries.
	QueueStatus(ctx context.Context) task.Status
}

// checklistServiceImpl implements the ChecklistService interface
type checklistServiceImpl struct {
	repo      *Repository
	scheduler Scheduler
	identity  IdentityProvider
	emitter   events.EventEmitter
	logger    *slog.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewChecklistService creates a new ChecklistService.
// It returns an error if any of the required dependencies are nil.
func NewChecklistService(
	repo *Repository,
	scheduler Scheduler,
	identity IdentityProvider,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (ChecklistService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository cannot be nil")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity provider cannot be nil")
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &checklistServiceImpl{
		repo:      repo,
		scheduler: scheduler,
		identity:  identity,
		emitter:   emitter,
		logger:    logger.With("component", "checklist_service"),
		now:       time.Now,
		newID:     uuid.New,
	}, nil
}

// log returns the request-scoped logger when one is attached.
func (s *checklistServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// CreateChecklist implements ChecklistService.CreateChecklist
func (s *checklistServiceImpl) CreateChecklist(ctx context.Context, name string) (*domain.Checklist, error) {
	checklist, err := domain.NewChecklist(name)
	if err != nil {
		return nil, NewServiceError("create_checklist", "invalid checklist", errors.Join(domain.ErrValidation, err))
	}

	if err := s.repo.Create(ctx, checklist); err != nil {
		s.log(ctx).Error("failed to create checklist", "error", err, "checklist_id", checklist.ID)
		return nil, NewServiceError("create_checklist", "failed to save checklist", err)
	}

	s.log(ctx).Info("checklist created", "checklist_id", checklist.ID)
	return checklist, nil
}

// GetChecklist implements ChecklistService.GetChecklist
func (s *checklistServiceImpl) GetChecklist(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	checklist, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, NewServiceError("get_checklist", "failed to load checklist", err)
	}
	return checklist, nil
}

// ListChecklists implements ChecklistService.ListChecklists
func (s *checklistServiceImpl) ListChecklists(ctx context.Context) ([]*domain.Checklist, error) {
	checklists, err := s.repo.List(ctx)
	if err != nil {
		return nil, NewServiceError("list_checklists", "failed to list checklists", err)
	}
	return checklists, nil
}

// DeleteChecklist implements ChecklistService.DeleteChecklist
func (s *checklistServiceImpl) DeleteChecklist(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return NewServiceError("delete_checklist", "failed to delete checklist", err)
	}
	s.log(ctx).Info("checklist deleted", "checklist_id", id)
	return nil
}

// ImportMarkdown implements ChecklistService.ImportMarkdown
func (s *checklistServiceImpl) ImportMarkdown(ctx context.Context, text string) (*domain.Checklist, error) {
	checklist, err := markdown.Decode(text, markdown.DecodeOptions{
		Now:    s.now,
		NewID:  s.newID,
		Logger: s.log(ctx),
	})
	if err != nil {
		return nil, NewServiceError("import_markdown", "malformed checklist", err)
	}

	if err := s.repo.Create(ctx, checklist); err != nil {
		return nil, NewServiceError("import_markdown", "failed to save checklist", err)
	}

	scheduled, refused := s.scheduleImported(ctx, checklist)
	s.log(ctx).Info("checklist imported",
		"checklist_id", checklist.ID,
		"tasks", len(checklist.Tasks),
		"scheduled", scheduled,
		"refused", refused)
	return checklist, nil
}

// scheduleImported hands every dequeueable remark of an imported checklist
// to the scheduler and counts the accepted and refused remarks. A refusal
// does not fail the import: the remark stays stored as dequeueable and is
// recovered by a later rescan or restart.
func (s *checklistServiceImpl) scheduleImported(ctx context.Context, checklist *domain.Checklist) (scheduled, refused int) {
	pending := append(
		checklist.RemarksInState(domain.FamilyAITodo, domain.StateQueued),
		checklist.RemarksInState(domain.FamilyPromptExecution, domain.StatePending)...,
	)
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Remark.LastStateChange().Before(pending[j].Remark.LastStateChange())
	})

	for _, p := range pending {
		if err := s.schedule(ctx, checklist.ID, p.Task.ID, p.Remark); err != nil {
			refused++
			continue
		}
		scheduled++
	}
	return scheduled, refused
}

// ExportMarkdown implements ChecklistService.ExportMarkdown
func (s *checklistServiceImpl) ExportMarkdown(ctx context.Context, id uuid.UUID) (string, error) {
	checklist, err := s.repo.Load(ctx, id)
	if err != nil {
		return "", NewServiceError("export_markdown", "failed to load checklist", err)
	}
	return markdown.Encode(checklist), nil
}

// AddTask implements ChecklistService.AddTask
func (s *checklistServiceImpl) AddTask(
	ctx context.Context,
	checklistID uuid.UUID,
	input TaskInput,
) (*domain.Task, error) {
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if input.Due == (civil.Date{}) {
		input.Due = civil.DateOf(s.now().UTC())
	}

	t, err := domain.NewTask(input.Description, input.Priority, input.Due, input.Assignee)
	if err != nil {
		return nil, NewServiceError("add_task", "invalid task", errors.Join(domain.ErrValidation, err))
	}
	t.Attachments = append([]domain.Attachment(nil), input.Attachments...)

	_, err = s.repo.Update(ctx, checklistID, func(c *domain.Checklist) error {
		return c.AddTask(t)
	})
	if err != nil {
		return nil, NewServiceError("add_task", "failed to add task", err)
	}

	s.log(ctx).Info("task added", "checklist_id", checklistID, "task_id", t.ID)
	return t, nil
}

// ToggleTask implements ChecklistService.ToggleTask
func (s *checklistServiceImpl) ToggleTask(ctx context.Context, checklistID, taskID uuid.UUID) (*domain.Task, error) {
	var toggled *domain.Task
	_, err := s.repo.Update(ctx, checklistID, func(c *domain.Checklist) error {
		t := c.FindTask(taskID)
		if t == nil {
			return domain.ErrTaskNotFound
		}
		t.ToggleComplete()
		toggled = t
		return nil
	})
	if err != nil {
		return nil, NewServiceError("toggle_task", "failed to toggle task", err)
	}
	return toggled, nil
}

// DeleteTask implements ChecklistService.DeleteTask
func (s *checklistServiceImpl) DeleteTask(ctx context.Context, checklistID, taskID uuid.UUID) error {
	_, err := s.repo.Update(ctx, checklistID, func(c *domain.Checklist) error {
		return c.RemoveTask(taskID)
	})
	if err != nil {
		return NewServiceError("delete_task", "failed to delete task", err)
	}
	s.log(ctx).Info("task deleted", "checklist_id", checklistID, "task_id", taskID)
	return nil
}

// Thread implements ChecklistService.Thread
func (s *checklistServiceImpl) Thread(ctx context.Context, checklistID, taskID uuid.UUID) ([]ThreadEntry, error) {
	checklist, err := s.repo.Load(ctx, checklistID)
	if err != nil {
		return nil, NewServiceError("thread", "failed to load checklist", err)
	}

	t := checklist.FindTask(taskID)
	if t == nil {
		return nil, NewServiceError("thread", "failed to find task", domain.ErrTaskNotFound)
	}

	entries := thread.Flatten(t.Remarks)
	out := make([]ThreadEntry, len(entries))
	for i, e := range entries {
		out[i] = ThreadEntry{Remark: e.Remark, Depth: e.Depth, Text: workflow.RemarkText(e.Remark)}
	}
	return out, nil
}

// AddRemark implements ChecklistService.AddRemark
func (s *checklistServiceImpl) AddRemark(
	ctx context.Context,
	checklistID, taskID uuid.UUID,
	input RemarkInput,
) (*domain.Remark, error) {
	author, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, NewServiceError("add_remark", "failed to identify author", err)
	}

	text := strings.TrimSpace(domain.NormalizeNewlines(input.Text))
	body, tag := workflow.ParseRemarkText(text)
	body = strings.TrimSpace(body)
	if input.AITodo && tag == nil {
		tag = &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StatePending}
	}
	if tag != nil && !tag.Is(domain.FamilyAITodo, domain.StatePending) {
		return nil, NewServiceError("add_remark", "reserved workflow tag", ErrReservedWorkflowTag)
	}
	if tag != nil && strings.TrimSpace(body) == "" {
		return nil, NewServiceError("add_remark", "ai-todo needs an instruction", domain.ErrEmptyContent)
	}

	remark, err := domain.NewRemark(body, tag, author, s.now(), input.ParentID)
	if err != nil {
		return nil, NewServiceError("add_remark", "invalid remark", errors.Join(domain.ErrValidation, err))
	}

	_, err = s.repo.Update(ctx, checklistID, func(c *domain.Checklist) error {
		t := c.FindTask(taskID)
		if t == nil {
			return domain.ErrTaskNotFound
		}
		return t.AddRemark(remark.Clone())
	})
	if err != nil {
		return nil, NewServiceError("add_remark", "failed to add remark", err)
	}

	s.log(ctx).Info("remark added",
		"checklist_id", checklistID,
		"task_id", taskID,
		"remark_id", remark.ID,
		"tagged", remark.Tagged())
	return remark, nil
}

// DeleteRemark implements ChecklistService.DeleteRemark
func (s *checklistServiceImpl) DeleteRemark(ctx context.Context, checklistID, taskID, remarkID uuid.UUID) error {
	_, err := s.repo.Update(ctx, checklistID, func(c *domain.Checklist) error {
		t := c.FindTask(taskID)
		if t == nil {
			return domain.ErrTaskNotFound
		}
		return t.RemoveRemark(remarkID)
	})
	if err != nil {
		return NewServiceError("delete_remark", "failed to delete remark", err)
	}
	s.log(ctx).Info("remark deleted",
		"checklist_id", checklistID,
		"task_id", taskID,
		"remark_id", remarkID)
	return nil
}

// EnqueueTodo implements ChecklistService.EnqueueTodo
func (s *checklistServiceImpl) EnqueueTodo(
	ctx context.Context,
	checklistID, taskID, remarkID uuid.UUID,
) (*domain.Remark, error) {
	var queued *domain.Remark
	_, err := s.repo.Update(ctx, checklistID, func(c *domain.Checklist) error {
		_, remark, err := c.Locate(taskID, remarkID)
		if err != nil {
			return err
		}
		if remark.Workflow == nil || remark.Workflow.Family != domain.FamilyAITodo {
			return ErrNotAITodo
		}
		if remark.Workflow.State == domain.StateQueued {
			// Stored as queued but possibly refused by the scheduler; hand it
			// over again.
			queued = remark.Clone()
			return nil
		}
		if _, err := workflow.Apply(remark, workflow.EventEnqueue, s.now(), s.repo.Policy()); err != nil {
			return err
		}
		queued = remark.Clone()
		return nil
	})
	if err != nil {
		return nil, NewServiceError("enqueue_todo", "failed to enqueue ai-todo", err)
	}

	if err := s.schedule(ctx, checklistID, taskID, queued); err != nil {
		return queued, NewServiceError("enqueue_todo", "ai-todo is queued but not scheduled", err)
	}
	return queued, nil
}

// RequestPromptExecution implements ChecklistService.RequestPromptExecution
func (s *checklistServiceImpl) RequestPromptExecution(
	ctx context.Context,
	checklistID, taskID, resultID uuid.UUID,
	prompt string,
) (*domain.Remark, error) {
	author, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, NewServiceError("request_prompt_execution", "failed to identify author", err)
	}

	prompt = strings.TrimSpace(domain.NormalizeNewlines(prompt))
	if prompt == "" {
		return nil, NewServiceError("request_prompt_execution", "prompt is required", domain.ErrEmptyContent)
	}

	var created *domain.Remark
	_, err = s.repo.Update(ctx, checklistID, func(c *domain.Checklist) error {
		t, result, err := c.Locate(taskID, resultID)
		if err != nil {
			return err
		}
		if !followsCompletedExecution(t, result) {
			return ErrInvalidPromptTarget
		}

		parent := result.ID
		remark := &domain.Remark{
			ID:        s.newID(),
			Body:      prompt,
			Workflow:  &domain.WorkflowTag{Family: domain.FamilyPromptExecution, State: domain.StatePending},
			Author:    author,
			Timestamp: s.now().UTC(),
			ParentID:  &parent,
		}
		if err := t.AddRemark(remark); err != nil {
			return err
		}
		created = remark.Clone()
		return nil
	})
	if err != nil {
		return nil, NewServiceError("request_prompt_execution", "failed to create prompt execution", err)
	}

	if err := s.schedule(ctx, checklistID, taskID, created); err != nil {
		return created, NewServiceError("request_prompt_execution", "prompt execution is pending but not scheduled", err)
	}
	return created, nil
}

// QueueStatus implements ChecklistService.QueueStatus
func (s *checklistServiceImpl) QueueStatus(context.Context) task.Status {
	return s.scheduler.Status()
}

// schedule hands a remark that is already dequeueable in the stored document
// to the scheduler. When the scheduler refuses it, the stored state still
// holds and the scheduler recovers the remark on its next start.
func (s *checklistServiceImpl) schedule(ctx context.Context, checklistID, taskID uuid.UUID, remark *domain.Remark) error {
	log := s.log(ctx).With(
		"checklist_id", checklistID,
		"task_id", taskID,
		"remark_id", remark.ID,
		"family", remark.Workflow.Family)

	err := s.scheduler.Enqueue(task.Entry{
		ChecklistID: checklistID,
		TaskID:      taskID,
		RemarkID:    remark.ID,
		EnqueuedAt:  s.now().UTC(),
	})
	if err != nil {
		log.Warn("scheduler refused remark", "error", err)
		return errors.Join(ErrQueueUnavailable, err)
	}

	log.Info("remark scheduled")
	event := events.NewWorkflowEvent(events.EventRemarkEnqueued, checklistID, taskID, remark.ID).WithTag(remark.Workflow)
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit enqueue event", "error", err)
	}
	return nil
}

// followsCompletedExecution reports whether r is a reply to a completed
// ai-todo or prompt execution, which is where a refined prompt may run.
func followsCompletedExecution(t *domain.Task, r *domain.Remark) bool {
	if !r.HasParent() {
		return false
	}
	parent := t.FindRemark(*r.ParentID)
	if parent == nil {
		return false
	}
	return parent.Workflow.Is(domain.FamilyAITodo, domain.StateCompleted) ||
		parent.Workflow.Is(domain.FamilyPromptExecution, domain.StateCompleted)
}
