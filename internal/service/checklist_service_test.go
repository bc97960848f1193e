package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/events"
	"github.com/phrazzld/checklist-api/internal/generation"
	"github.com/phrazzld/checklist-api/internal/markdown"
	"github.com/phrazzld/checklist-api/internal/mocks"
	"github.com/phrazzld/checklist-api/internal/platform/logger"
	"github.com/phrazzld/checklist-api/internal/service"
	"github.com/phrazzld/checklist-api/internal/store"
	"github.com/phrazzld/checklist-api/internal/task"
	"github.com/phrazzld/checklist-api/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store     *store.MemoryStore
	repo      *service.Repository
	scheduler *mocks.MockScheduler
	emitter   *mocks.MockEventEmitter
	svc       service.ChecklistService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		store:     store.NewMemoryStore(),
		scheduler: &mocks.MockScheduler{},
		emitter:   &mocks.MockEventEmitter{},
	}
	f.repo = newTestRepository(t, f.store, f.emitter)

	svc, err := service.NewChecklistService(f.repo, f.scheduler, service.StaticIdentity("alice"), f.emitter, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

// withTodo stores a checklist holding one task with an ai-todo in state,
// last changed at changedAt.
func (f *serviceFixture) withTodo(
	t *testing.T,
	state domain.WorkflowState,
	changedAt time.Time,
) (*domain.Checklist, *domain.Task, *domain.Remark) {
	t.Helper()
	return seededChecklist(t, f.store, state, changedAt)
}

func (f *serviceFixture) remark(t *testing.T, checklistID, taskID, remarkID uuid.UUID) *domain.Remark {
	t.Helper()
	c, err := f.store.Load(context.Background(), checklistID)
	require.NoError(t, err)
	_, r, err := c.Locate(taskID, remarkID)
	require.NoError(t, err)
	return r
}

// addResult appends an assistant result beneath parent directly in the store.
func (f *serviceFixture) addResult(t *testing.T, checklistID, taskID uuid.UUID, parent *domain.Remark) *domain.Remark {
	t.Helper()

	c, err := f.store.Load(context.Background(), checklistID)
	require.NoError(t, err)

	parentID := parent.ID
	result := &domain.Remark{
		ID:        uuid.New(),
		Body:      "Here are the notes.",
		Author:    domain.AssistantAuthor,
		Timestamp: time.Now().UTC(),
		ParentID:  &parentID,
	}
	require.NoError(t, c.FindTask(taskID).AddRemark(result))
	require.NoError(t, f.store.Save(context.Background(), c))
	return result
}

func TestNewChecklistService_Validation(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, store.NewMemoryStore(), nil)
	identity := service.StaticIdentity("alice")

	_, err := service.NewChecklistService(nil, &mocks.MockScheduler{}, identity, nil, nil)
	assert.Error(t, err)
	_, err = service.NewChecklistService(repo, nil, identity, nil, nil)
	assert.Error(t, err)
	_, err = service.NewChecklistService(repo, &mocks.MockScheduler{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestChecklistService_ChecklistLifecycle(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateChecklist(ctx, "  Weekly review ")
	require.NoError(t, err)
	assert.Equal(t, "Weekly review", created.Name)

	got, err := f.svc.GetChecklist(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	all, err := f.svc.ListChecklists(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, f.svc.DeleteChecklist(ctx, created.ID))

	_, err = f.svc.GetChecklist(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = f.svc.DeleteChecklist(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.CreateChecklist(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	var svcErr *service.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "create_checklist", svcErr.Operation)
}

func TestChecklistService_ImportExport(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	doc := strings.Join([]string{
		"# Launch",
		"",
		"## Incomplete Tasks",
		"",
		"- [ ] **Write release notes** (Priority: High, Due: 2026-03-01) - *Assignee: Dana*",
		"  - > #20260201 [ai-todo|queued] draft the notes (by dana)",
		"",
	}, "\n")

	imported, err := f.svc.ImportMarkdown(ctx, doc)
	require.NoError(t, err)
	require.Len(t, imported.Tasks, 1)
	assert.Equal(t, "Dana", imported.Tasks[0].Assignee)
	require.Len(t, imported.Tasks[0].Remarks, 1)
	assert.True(t, imported.Tasks[0].Remarks[0].Workflow.Is(domain.FamilyAITodo, domain.StateQueued))

	entries := f.scheduler.Entries()
	require.Len(t, entries, 1, "imported queued ai-todos are scheduled")
	assert.Equal(t, imported.Tasks[0].Remarks[0].ID, entries[0].RemarkID)

	exported, err := f.svc.ExportMarkdown(ctx, imported.ID)
	require.NoError(t, err)
	assert.Contains(t, exported, "# Launch")
	assert.Contains(t, exported, "[ai-todo|queued] draft the notes")

	again, err := markdown.Decode(exported, markdown.DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, exported, markdown.Encode(again))
}

func TestChecklistService_ImportLogsRefusedRemarks(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.scheduler.EnqueueFn = func(task.Entry) error { return task.ErrQueueFull }
	ctx, logBuf := logger.NewTestContext(t)

	doc := strings.Join([]string{
		"# Backlog",
		"",
		"## Incomplete Tasks",
		"",
		"- [ ] **Triage bugs** (Priority: Low, Due: 2026-03-01) - *Assignee: Unassigned*",
		"  - > #20260201 [ai-todo|queued] group the reports (by dana)",
		"",
	}, "\n")

	imported, err := f.svc.ImportMarkdown(ctx, doc)
	require.NoError(t, err, "a refused remark does not fail the import")
	assert.True(t, imported.Tasks[0].Remarks[0].Workflow.Is(domain.FamilyAITodo, domain.StateQueued))
	assert.Empty(t, f.scheduler.Entries())

	logger.AssertLogContains(t, logBuf, "checklist imported")
	logger.AssertLogField(t, logBuf, "refused", float64(1))
	logger.AssertLogField(t, logBuf, "scheduled", float64(0))
}

func TestChecklistService_ImportRejectsMissingTitle(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	_, err := f.svc.ImportMarkdown(context.Background(), "- [ ] a task without a title\n")
	assert.ErrorIs(t, err, markdown.ErrMissingTitle)
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	all, err := f.svc.ListChecklists(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "a malformed import creates nothing")
}

func TestChecklistService_Tasks(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	checklist, err := f.svc.CreateChecklist(ctx, "Chores")
	require.NoError(t, err)

	added, err := f.svc.AddTask(ctx, checklist.ID, service.TaskInput{
		Description: "Water plants",
		Attachments: []domain.Attachment{{Name: "schedule.txt", Content: "daily"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, added.Priority)
	assert.Equal(t, civil.DateOf(time.Now().UTC()), added.Due)
	assert.Equal(t, domain.TaskStatusPending, added.Status)
	assert.Len(t, added.Attachments, 1)

	toggled, err := f.svc.ToggleTask(ctx, checklist.ID, added.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusComplete, toggled.Status)

	stored, err := f.svc.GetChecklist(ctx, checklist.ID)
	require.NoError(t, err)
	assert.True(t, stored.FindTask(added.ID).IsComplete())

	_, err = f.svc.AddTask(ctx, checklist.ID, service.TaskInput{Description: "Bad", Priority: "Urgent"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.AddTask(ctx, uuid.New(), service.TaskInput{Description: "Orphan"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.ToggleTask(ctx, checklist.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	require.NoError(t, f.svc.DeleteTask(ctx, checklist.ID, added.ID))
	assert.ErrorIs(t, f.svc.DeleteTask(ctx, checklist.ID, added.ID), domain.ErrTaskNotFound)
}

func TestChecklistService_AddRemark(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	checklist, tk, todo := f.withTodo(t, domain.StatePending, time.Now())

	reply, err := f.svc.AddRemark(ctx, checklist.ID, tk.ID, service.RemarkInput{
		Text:     "sounds good",
		ParentID: &todo.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", reply.Author)
	assert.False(t, reply.Tagged())
	assert.Equal(t, todo.ID, *reply.ParentID)

	tagged, err := f.svc.AddRemark(ctx, checklist.ID, tk.ID, service.RemarkInput{Text: "[ai-todo|pending] summarise"})
	require.NoError(t, err)
	assert.Equal(t, "summarise", tagged.Body)
	assert.True(t, tagged.Workflow.Is(domain.FamilyAITodo, domain.StatePending))

	flagged, err := f.svc.AddRemark(ctx, checklist.ID, tk.ID, service.RemarkInput{Text: "translate", AITodo: true})
	require.NoError(t, err)
	assert.True(t, flagged.Workflow.Is(domain.FamilyAITodo, domain.StatePending))

	stored := f.remark(t, checklist.ID, tk.ID, flagged.ID)
	assert.Equal(t, "translate", stored.Body)

	testCases := []struct {
		name  string
		input service.RemarkInput
		want  error
	}{
		{"unknown parent", service.RemarkInput{Text: "hi", ParentID: ptr(uuid.New())}, domain.ErrParentNotFound},
		{"reserved state", service.RemarkInput{Text: "[ai-todo|running] sneaky"}, service.ErrReservedWorkflowTag},
		{"prompt execution", service.RemarkInput{Text: "[prompt-execution|pending] sneaky"}, service.ErrReservedWorkflowTag},
		{"empty text", service.RemarkInput{Text: "  "}, domain.ErrEmptyContent},
		{"empty ai-todo", service.RemarkInput{Text: "", AITodo: true}, domain.ErrEmptyContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.AddRemark(ctx, checklist.ID, tk.ID, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err = f.svc.AddRemark(ctx, checklist.ID, uuid.New(), service.RemarkInput{Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestChecklistService_AddRemarkNeedsIdentity(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	checklist, tk, _ := seededChecklist(t, st, domain.StatePending, time.Now())

	svc, err := service.NewChecklistService(newTestRepository(t, st, nil), &mocks.MockScheduler{},
		service.ContextIdentity{}, nil, nil)
	require.NoError(t, err)

	_, err = svc.AddRemark(context.Background(), checklist.ID, tk.ID, service.RemarkInput{Text: "hi"})
	assert.ErrorIs(t, err, service.ErrNoIdentity)

	ctx := service.WithUser(context.Background(), "bob")
	remark, err := svc.AddRemark(ctx, checklist.ID, tk.ID, service.RemarkInput{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "bob", remark.Author)
}

func TestChecklistService_DeleteRemark(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	checklist, tk, todo := f.withTodo(t, domain.StatePending, time.Now())

	parent := todo.ID
	reply, err := f.svc.AddRemark(ctx, checklist.ID, tk.ID, service.RemarkInput{Text: "on it", ParentID: &parent})
	require.NoError(t, err)
	sibling, err := f.svc.AddRemark(ctx, checklist.ID, tk.ID, service.RemarkInput{Text: "unrelated"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRemark(ctx, checklist.ID, tk.ID, todo.ID))

	stored, err := f.svc.GetChecklist(ctx, checklist.ID)
	require.NoError(t, err)
	remaining := stored.FindTask(tk.ID)
	assert.Nil(t, remaining.FindRemark(todo.ID))
	assert.Nil(t, remaining.FindRemark(reply.ID), "replies go with their parent")
	assert.NotNil(t, remaining.FindRemark(sibling.ID))

	err = f.svc.DeleteRemark(ctx, checklist.ID, tk.ID, todo.ID)
	assert.ErrorIs(t, err, domain.ErrRemarkNotFound)

	err = f.svc.DeleteRemark(ctx, checklist.ID, uuid.New(), sibling.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestChecklistService_EnqueueTodo(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	checklist, tk, todo := f.withTodo(t, domain.StatePending, time.Now())

	queued, err := f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateQueued, queued.Workflow.State)
	assert.Equal(t, domain.StateQueued, f.remark(t, checklist.ID, tk.ID, todo.ID).Workflow.State)

	entries := f.scheduler.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, todo.ID, entries[0].RemarkID)
	assert.Equal(t, tk.ID, entries[0].TaskID)
	assert.Equal(t, checklist.ID, entries[0].ChecklistID)

	assert.Equal(t, []events.EventType{events.EventRemarkEnqueued}, f.emitter.Types())

	again, err := f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, todo.ID)
	require.NoError(t, err, "a queued ai-todo is handed to the scheduler again")
	assert.Equal(t, domain.StateQueued, again.Workflow.State)
	assert.True(t, queued.StateChangedAt.Equal(f.remark(t, checklist.ID, tk.ID, todo.ID).StateChangedAt),
		"re-enqueueing leaves the stored state untouched")
	assert.Len(t, f.scheduler.Entries(), 2)
}

func TestChecklistService_EnqueueTodoRefusals(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("completed within cooldown", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		checklist, tk, todo := f.withTodo(t, domain.StateCompleted, time.Now().Add(-4*time.Minute))

		_, err := f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, todo.ID)
		assert.ErrorIs(t, err, workflow.ErrCooldown)
		assert.Equal(t, domain.StateCompleted, f.remark(t, checklist.ID, tk.ID, todo.ID).Workflow.State)
		assert.Empty(t, f.scheduler.Entries())
	})

	t.Run("completed after cooldown", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		checklist, tk, todo := f.withTodo(t, domain.StateCompleted, time.Now().Add(-5*time.Minute-time.Second))

		_, err := f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, todo.ID)
		require.NoError(t, err)
	})

	t.Run("failed retries immediately", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		checklist, tk, todo := f.withTodo(t, domain.StateFailed, time.Now())

		_, err := f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, todo.ID)
		require.NoError(t, err)
	})

	t.Run("plain remark", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		checklist, tk, _ := f.withTodo(t, domain.StatePending, time.Now())
		plain, err := f.svc.AddRemark(ctx, checklist.ID, tk.ID, service.RemarkInput{Text: "just a note"})
		require.NoError(t, err)

		_, err = f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, plain.ID)
		assert.ErrorIs(t, err, service.ErrNotAITodo)
	})

	t.Run("unknown remark", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		checklist, tk, _ := f.withTodo(t, domain.StatePending, time.Now())

		_, err := f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrRemarkNotFound)
	})

	t.Run("queue full keeps stored state", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t)
		f.scheduler.EnqueueFn = func(task.Entry) error { return task.ErrQueueFull }
		checklist, tk, todo := f.withTodo(t, domain.StatePending, time.Now())

		queued, err := f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, todo.ID)
		assert.ErrorIs(t, err, service.ErrQueueUnavailable)
		assert.ErrorIs(t, err, task.ErrQueueFull)
		require.NotNil(t, queued)
		assert.Equal(t, domain.StateQueued, f.remark(t, checklist.ID, tk.ID, todo.ID).Workflow.State)
		assert.Empty(t, f.emitter.Types())

		f.scheduler.EnqueueFn = nil
		retried, err := f.svc.EnqueueTodo(ctx, checklist.ID, tk.ID, todo.ID)
		require.NoError(t, err, "enqueueing again once the queue has room schedules the remark")
		assert.Equal(t, domain.StateQueued, retried.Workflow.State)

		entries := f.scheduler.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, todo.ID, entries[0].RemarkID)
	})
}

func TestChecklistService_RequestPromptExecution(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	checklist, tk, todo := f.withTodo(t, domain.StateCompleted, time.Now())
	result := f.addResult(t, checklist.ID, tk.ID, todo)

	created, err := f.svc.RequestPromptExecution(ctx, checklist.ID, tk.ID, result.ID, " make it shorter ")
	require.NoError(t, err)
	assert.Equal(t, "make it shorter", created.Body)
	assert.Equal(t, "alice", created.Author)
	assert.True(t, created.Workflow.Is(domain.FamilyPromptExecution, domain.StatePending))
	assert.Equal(t, result.ID, *created.ParentID)

	stored := f.remark(t, checklist.ID, tk.ID, created.ID)
	assert.True(t, workflow.IsDequeueable(stored.Workflow))

	entries := f.scheduler.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, created.ID, entries[0].RemarkID)

	got := f.emitter.Events()
	require.Len(t, got, 1)
	assert.Equal(t, domain.FamilyPromptExecution, got[0].Family)
	assert.Equal(t, domain.StatePending, got[0].State)

	_, err = f.svc.RequestPromptExecution(ctx, checklist.ID, tk.ID, todo.ID, "again")
	assert.ErrorIs(t, err, service.ErrInvalidPromptTarget, "the ai-todo itself is not a result")

	_, err = f.svc.RequestPromptExecution(ctx, checklist.ID, tk.ID, result.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = f.svc.RequestPromptExecution(ctx, checklist.ID, tk.ID, uuid.New(), "x")
	assert.ErrorIs(t, err, domain.ErrRemarkNotFound)
}

func TestChecklistService_RequestPromptExecutionNeedsCompletedParent(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	checklist, tk, todo := f.withTodo(t, domain.StateFailed, time.Now())
	reply := f.addResult(t, checklist.ID, tk.ID, todo)

	_, err := f.svc.RequestPromptExecution(context.Background(), checklist.ID, tk.ID, reply.ID, "retry")
	assert.ErrorIs(t, err, service.ErrInvalidPromptTarget)
	assert.Empty(t, f.scheduler.Entries())
}

func TestChecklistService_Thread(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	checklist, tk, todo := f.withTodo(t, domain.StateCompleted, time.Now().Add(-time.Hour))
	result := f.addResult(t, checklist.ID, tk.ID, todo)

	later, err := f.svc.AddRemark(ctx, checklist.ID, tk.ID, service.RemarkInput{Text: "thanks"})
	require.NoError(t, err)

	entries, err := f.svc.Thread(ctx, checklist.ID, tk.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, todo.ID, entries[0].Remark.ID)
	assert.Equal(t, "[ai-todo|completed] draft the notes", entries[0].Text)
	assert.Equal(t, result.ID, entries[1].Remark.ID)
	assert.Equal(t, 1, entries[1].Depth)
	assert.Equal(t, later.ID, entries[2].Remark.ID)
	assert.Equal(t, 0, entries[2].Depth)

	_, err = f.svc.Thread(ctx, checklist.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

// TestChecklistService_EndToEnd drives an ai-todo through the real
// scheduler: enqueue, one step, result recorded.
func TestChecklistService_EndToEnd(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	emitter := &mocks.MockEventEmitter{}
	repo := newTestRepository(t, st, emitter)

	executor := &mocks.MockExecutor{Result: "Done: notes drafted."}
	scheduler := task.NewScheduler(repo, executor, emitter, task.DefaultSchedulerConfig(), nil)

	svc, err := service.NewChecklistService(repo, scheduler, service.StaticIdentity("alice"), emitter, nil)
	require.NoError(t, err)

	ctx := context.Background()
	checklist, tk, todo := seededChecklist(t, st, domain.StatePending, time.Now())

	_, err = svc.EnqueueTodo(ctx, checklist.ID, tk.ID, todo.ID)
	require.NoError(t, err)
	assert.Len(t, svc.QueueStatus(ctx).Queued, 1)

	consumed, err := scheduler.Step(ctx)
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Empty(t, svc.QueueStatus(ctx).Queued)

	requests := executor.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, generation.Request{
		Instruction:     "draft the notes",
		TaskDescription: "Write release notes",
		History:         requests[0].History,
		Attachments:     []domain.Attachment{},
	}, requests[0])

	entries, err := svc.Thread(ctx, checklist.ID, tk.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Remark.Workflow.Is(domain.FamilyAITodo, domain.StateCompleted))
	assert.Equal(t, domain.AssistantAuthor, entries[1].Remark.Author)
	assert.Equal(t, "Done: notes drafted.", entries[1].Remark.Body)
	assert.Equal(t, 1, entries[1].Depth)

	assert.Contains(t, emitter.Types(), events.EventExecutionCompleted)
}

func ptr[T any](v T) *T {
	return &v
}
