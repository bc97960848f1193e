package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/events"
	"github.com/phrazzld/checklist-api/internal/generation"
	"github.com/phrazzld/checklist-api/internal/redact"
	"github.com/phrazzld/checklist-api/internal/store"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// Documents is the checklist access the scheduler needs. Load and Update
// apply the stale sweep; Update is a read-modify-write that retries lost
// optimistic writes and saves nothing when fn returns an error.
type Documents interface {
	Load(ctx context.Context, id uuid.UUID) (*domain.Checklist, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*domain.Checklist) error) (*domain.Checklist, error)
	List(ctx context.Context) ([]*domain.Checklist, error)
}

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	// QueueSize caps the number of queued entries. Zero means unbounded.
	QueueSize int

	// StaleAfter is the sweep threshold. A checklist blocked by a running
	// remark is looked at again once that remark can be swept.
	StaleAfter time.Duration

	// ExecutionTimeout bounds each executor call. Zero means no deadline.
	ExecutionTimeout time.Duration

	// WriteRetryDelay is how long to wait before retrying an entry whose
	// state write failed.
	WriteRetryDelay time.Duration

	// ResultWriteAttempts is how many times the result write is tried.
	ResultWriteAttempts int
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		QueueSize:           100,
		StaleAfter:          workflow.DefaultStaleAfter,
		ExecutionTimeout:    10 * time.Minute,
		WriteRetryDelay:     5 * time.Second,
		ResultWriteAttempts: 3,
	}
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	InFlight *Entry  `json:"in_flight,omitempty"`
	Queued   []Entry `json:"queued"`
}

var (
	errEntryGone     = errors.New("queued remark no longer exists")
	errNotDequeuable = errors.New("queued remark is no longer dequeueable")
	errChecklistBusy = errors.New("another remark of the checklist is running")
)

// Scheduler executes queued remarks one at a time.
type Scheduler struct {
	docs     Documents
	executor generation.Executor
	emitter  events.EventEmitter
	config   SchedulerConfig
	logger   *slog.Logger

	now   func() time.Time
	newID func() uuid.UUID

	mu       sync.Mutex
	queue    *Queue
	inFlight *Entry
	timer    *time.Timer
	closed   bool

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. A nil emitter discards events.
func NewScheduler(
	docs Documents,
	executor generation.Executor,
	emitter events.EventEmitter,
	config SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if config.WriteRetryDelay <= 0 {
		config.WriteRetryDelay = DefaultSchedulerConfig().WriteRetryDelay
	}
	if config.ResultWriteAttempts <= 0 {
		config.ResultWriteAttempts = 1
	}

	return &Scheduler{
		docs:     docs,
		executor: executor,
		emitter:  emitter,
		config:   config,
		logger:   logger.With("component", "scheduler"),
		now:      time.Now,
		newID:    uuid.New,
		queue:    NewQueue(config.QueueSize),
		wake:     make(chan struct{}, 1),
	}
}

// Start recovers queued work from the store and starts the consumer
// goroutine. The goroutine runs until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover queue: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.signal()
	return nil
}

// Stop cancels the consumer and waits for it to exit. An execution in
// flight is abandoned; its remark stays running until a sweep resets it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Enqueue adds an entry and wakes the consumer. Enqueueing a remark that is
// already queued is a no-op.
func (s *Scheduler) Enqueue(entry Entry) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrQueueClosed
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = s.now().UTC()
	}
	err := s.queue.Push(entry)
	queued := s.queue.Len()
	s.mu.Unlock()

	if errors.Is(err, ErrAlreadyQueued) {
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Debug("entry enqueued",
		"checklist_id", entry.ChecklistID,
		"task_id", entry.TaskID,
		"remark_id", entry.RemarkID,
		"queue_len", queued)
	s.signal()
	return nil
}

// Status returns the entry in flight, if any, and the queued entries.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Queued: s.queue.Snapshot()}
	if s.inFlight != nil {
		e := *s.inFlight
		st.InFlight = &e
	}
	return st
}

// Recover re-enqueues every queued ai-todo and pending prompt execution found
// in the store, in the order their state was last written. The queue itself
// is never persisted.
func (s *Scheduler) Recover(ctx context.Context) (int, error) {
	checklists, err := s.docs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list checklists: %w", err)
	}

	recovered := s.requeue(ctx, checklists...)
	s.logger.Info("recovered queued remarks", "count", recovered, "checklists", len(checklists))
	return recovered, nil
}

// RecoverChecklist re-enqueues the dequeueable remarks of one checklist. It
// picks up remarks stored as queued while the scheduler refused them, or
// written by another process.
func (s *Scheduler) RecoverChecklist(ctx context.Context, id uuid.UUID) (int, error) {
	c, err := s.docs.Load(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to load checklist %s: %w", id, err)
	}

	recovered := s.requeue(ctx, c)
	if recovered > 0 {
		s.logger.Info("recovered queued remarks", "count", recovered, "checklist_id", id)
	}
	return recovered, nil
}

// requeue enqueues the dequeueable remarks of checklists, oldest state
// change first, and returns how many were not queued before.
func (s *Scheduler) requeue(ctx context.Context, checklists ...*domain.Checklist) int {
	type found struct {
		entry Entry
		at    time.Time
	}
	var all []found
	for _, c := range checklists {
		pairs := append(
			c.RemarksInState(domain.FamilyAITodo, domain.StateQueued),
			c.RemarksInState(domain.FamilyPromptExecution, domain.StatePending)...,
		)
		for _, p := range pairs {
			all = append(all, found{
				entry: Entry{ChecklistID: c.ID, TaskID: p.Task.ID, RemarkID: p.Remark.ID},
				at:    p.Remark.LastStateChange(),
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })

	recovered := 0
	for _, f := range all {
		if s.queued(f.entry.RemarkID) {
			continue
		}
		if err := s.Enqueue(f.entry); err != nil {
			s.logger.Error("failed to requeue remark",
				"checklist_id", f.entry.ChecklistID,
				"remark_id", f.entry.RemarkID,
				"error", err)
			continue
		}
		recovered++
		s.emit(ctx, events.NewWorkflowEvent(events.EventRemarkEnqueued,
			f.entry.ChecklistID, f.entry.TaskID, f.entry.RemarkID).WithMessage("recovered"))
	}
	return recovered
}

// queued reports whether the remark is waiting in the queue or in flight.
func (s *Scheduler) queued(remarkID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight != nil && s.inFlight.RemarkID == remarkID {
		return true
	}
	return s.queue.Contains(remarkID)
}

// signal wakes the consumer without blocking. The channel holds one token,
// so bursts of signals collapse into one pass.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// wakeAfter schedules a one-shot signal, replacing any pending one.
func (s *Scheduler) wakeAfter(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, s.signal)
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.logger.Info("scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-s.wake:
			s.drain(ctx)
		}
	}
}

// drain steps until the queue is empty or blocked.
func (s *Scheduler) drain(ctx context.Context) {
	for ctx.Err() == nil {
		processed, err := s.Step(ctx)
		if err != nil {
			s.logger.Error("scheduler step failed", "error", err)
			return
		}
		if !processed {
			return
		}
	}
}

// Step processes at most one entry. It reports whether the head entry was
// consumed, either executed or dropped. It returns an error only when the
// running state could not be written, in which case the entry stays at the
// head and a retry is scheduled.
func (s *Scheduler) Step(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.inFlight != nil {
		s.mu.Unlock()
		return false, nil
	}
	entry, ok := s.queue.Peek()
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	s.inFlight = &entry
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = nil
		s.mu.Unlock()
	}()

	log := s.logger.With(
		"checklist_id", entry.ChecklistID,
		"task_id", entry.TaskID,
		"remark_id", entry.RemarkID)

	var (
		req    generation.Request
		family domain.WorkflowFamily
	)
	_, err := s.docs.Update(ctx, entry.ChecklistID, func(c *domain.Checklist) error {
		if running := c.RunningRemark(); running != nil {
			s.wakeAfter(s.blockedFor(running))
			return errChecklistBusy
		}

		task, remark, err := c.Locate(entry.TaskID, entry.RemarkID)
		if err != nil {
			return errEntryGone
		}
		if !workflow.IsDequeueable(remark.Workflow) {
			return errNotDequeuable
		}

		if _, err := workflow.Apply(remark, workflow.EventDequeue, s.now(), workflow.Policy{}); err != nil {
			return err
		}
		family = remark.Workflow.Family
		req = generation.NewRequest(task, remark)
		return nil
	})

	switch {
	case errors.Is(err, errChecklistBusy):
		log.Debug("checklist has a running remark, waiting")
		return false, nil
	case errors.Is(err, errEntryGone), errors.Is(err, errNotDequeuable), store.IsNotFoundError(err):
		s.drop(ctx, entry, err)
		return true, nil
	case err != nil:
		s.wakeAfter(s.config.WriteRetryDelay)
		return false, fmt.Errorf("failed to mark remark %s running: %w", entry.RemarkID, err)
	}

	s.mu.Lock()
	s.queue.Pop()
	s.mu.Unlock()

	log.Info("execution started", "family", family)
	s.emit(ctx, events.NewWorkflowEvent(events.EventExecutionStarted,
		entry.ChecklistID, entry.TaskID, entry.RemarkID).
		WithTag(&domain.WorkflowTag{Family: family, State: domain.StateRunning}))

	result, execErr := s.execute(ctx, req)
	if ctx.Err() != nil {
		log.Warn("execution abandoned on shutdown")
		return true, nil
	}

	s.record(ctx, entry, family, result, execErr)
	return true, nil
}

func (s *Scheduler) execute(ctx context.Context, req generation.Request) (string, error) {
	if s.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ExecutionTimeout)
		defer cancel()
	}
	return s.executor.Execute(ctx, req)
}

// record writes the outcome onto the remark and appends the child remark.
// The state write is last-write-wins: a result that arrives after a sweep
// reset still lands.
func (s *Scheduler) record(ctx context.Context, entry Entry, family domain.WorkflowFamily, result string, execErr error) {
	log := s.logger.With(
		"checklist_id", entry.ChecklistID,
		"task_id", entry.TaskID,
		"remark_id", entry.RemarkID)

	event, state := workflow.EventSucceed, domain.StateCompleted
	author, body := domain.AssistantAuthor, result
	if execErr != nil {
		event, state = workflow.EventFail, domain.StateFailed
		author, body = domain.SystemAuthor, "Execution failed: "+redact.Error(execErr)
		log.Warn("execution failed", "error", execErr)
	}
	body = strings.TrimSpace(domain.NormalizeNewlines(body))
	if body == "" {
		body = "(empty result)"
	}

	now := s.now()
	write := func(c *domain.Checklist) error {
		task, remark, err := c.Locate(entry.TaskID, entry.RemarkID)
		if err != nil {
			return errEntryGone
		}

		if _, err := workflow.Apply(remark, event, now, workflow.Policy{}); err != nil {
			log.Info("remark moved on during execution, recording result anyway",
				"state", remark.Workflow.State)
			if err := workflow.Force(remark, state, now); err != nil {
				return err
			}
		}

		parent := remark.ID
		return task.AddRemark(&domain.Remark{
			ID:        s.newID(),
			Body:      body,
			Author:    author,
			Timestamp: now.UTC(),
			ParentID:  &parent,
		})
	}

	var err error
	for attempt := 1; attempt <= s.config.ResultWriteAttempts; attempt++ {
		_, err = s.docs.Update(ctx, entry.ChecklistID, write)
		if err == nil || errors.Is(err, errEntryGone) || store.IsNotFoundError(err) {
			break
		}
		log.Error("failed to record execution result", "attempt", attempt, "error", err)
		if attempt < s.config.ResultWriteAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.config.WriteRetryDelay):
			}
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, errEntryGone), store.IsNotFoundError(err):
		log.Info("remark vanished during execution, result dropped")
		return
	default:
		log.Error("giving up on execution result; the sweep will reset the remark", "error", err)
		return
	}

	eventType := events.EventExecutionCompleted
	if execErr != nil {
		eventType = events.EventExecutionFailed
	}
	e := events.NewWorkflowEvent(eventType, entry.ChecklistID, entry.TaskID, entry.RemarkID).
		WithTag(&domain.WorkflowTag{Family: family, State: state})
	if execErr != nil {
		e = e.WithMessage(execErr.Error())
	}
	s.emit(ctx, e)
	log.Info("execution recorded", "state", state)
}

func (s *Scheduler) drop(ctx context.Context, entry Entry, reason error) {
	s.mu.Lock()
	if head, ok := s.queue.Peek(); ok && head.RemarkID == entry.RemarkID {
		s.queue.Pop()
	}
	s.mu.Unlock()

	s.logger.Info("dropping queue entry",
		"checklist_id", entry.ChecklistID,
		"task_id", entry.TaskID,
		"remark_id", entry.RemarkID,
		"reason", reason)
	s.emit(ctx, events.NewWorkflowEvent(events.EventEntryDropped,
		entry.ChecklistID, entry.TaskID, entry.RemarkID).WithMessage(reason.Error()))
}

func (s *Scheduler) emit(ctx context.Context, e *events.WorkflowEvent) {
	if err := s.emitter.EmitEvent(ctx, e); err != nil {
		s.logger.Warn("failed to emit workflow event", "event_type", e.Type, "error", err)
	}
}

// blockedFor returns how long until the running remark becomes sweepable.
func (s *Scheduler) blockedFor(running *domain.Remark) time.Duration {
	if s.config.StaleAfter <= 0 {
		return s.config.WriteRetryDelay
	}
	d := running.LastStateChange().Add(s.config.StaleAfter).Sub(s.now()) + time.Second
	if d < s.config.WriteRetryDelay {
		d = s.config.WriteRetryDelay
	}
	return d
}
