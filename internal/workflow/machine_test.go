package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(f domain.WorkflowFamily, s domain.WorkflowState) domain.WorkflowTag {
	return domain.WorkflowTag{Family: f, State: s}
}

func TestTransition_AITodo(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from  domain.WorkflowState
		event Event
		to    domain.WorkflowState
	}{
		{domain.StatePending, EventEnqueue, domain.StateQueued},
		{domain.StateQueued, EventDequeue, domain.StateRunning},
		{domain.StateRunning, EventSucceed, domain.StateCompleted},
		{domain.StateRunning, EventFail, domain.StateFailed},
		{domain.StateRunning, EventReset, domain.StatePending},
		{domain.StateFailed, EventEnqueue, domain.StateQueued},
		{domain.StateCompleted, EventEnqueue, domain.StateQueued},
	}

	for _, tc := range testCases {
		got, err := Transition(tag(domain.FamilyAITodo, tc.from), tc.event)
		require.NoError(t, err, "%s on %s", tc.from, tc.event)
		assert.Equal(t, tc.to, got)
	}
}

func TestTransition_PromptExecution(t *testing.T) {
	t.Parallel()

	got, err := Transition(tag(domain.FamilyPromptExecution, domain.StatePending), EventDequeue)
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, got)

	got, err = Transition(tag(domain.FamilyPromptExecution, domain.StateRunning), EventSucceed)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, got)

	got, err = Transition(tag(domain.FamilyPromptExecution, domain.StateRunning), EventFail)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got)

	_, err = Transition(tag(domain.FamilyPromptExecution, domain.StatePending), EventEnqueue)
	assert.ErrorIs(t, err, ErrInvalidTransition, "prompt executions have no enqueue")

	_, err = Transition(tag(domain.FamilyPromptExecution, domain.StateFailed), EventEnqueue)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_Invalid(t *testing.T) {
	t.Parallel()

	invalid := []struct {
		from  domain.WorkflowState
		event Event
	}{
		{domain.StatePending, EventDequeue},
		{domain.StatePending, EventSucceed},
		{domain.StateQueued, EventEnqueue},
		{domain.StateQueued, EventFail},
		{domain.StateRunning, EventEnqueue},
		{domain.StateCompleted, EventSucceed},
		{domain.StateFailed, EventReset},
	}

	for _, tc := range invalid {
		_, err := Transition(tag(domain.FamilyAITodo, tc.from), tc.event)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s on %s", tc.from, tc.event)
	}

	_, err := Transition(tag("other", domain.StatePending), EventEnqueue)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestIsDequeueable(t *testing.T) {
	t.Parallel()

	queued := tag(domain.FamilyAITodo, domain.StateQueued)
	pendingTodo := tag(domain.FamilyAITodo, domain.StatePending)
	pendingPrompt := tag(domain.FamilyPromptExecution, domain.StatePending)

	assert.True(t, IsDequeueable(&queued))
	assert.False(t, IsDequeueable(&pendingTodo))
	assert.True(t, IsDequeueable(&pendingPrompt))
	assert.False(t, IsDequeueable(nil))
}

func TestApply(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := DefaultPolicy()

	t.Run("stamps state change", func(t *testing.T) {
		t.Parallel()

		r := &domain.Remark{
			ID:        uuid.New(),
			Workflow:  &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StatePending},
			Timestamp: now.Add(-time.Hour),
		}

		state, err := Apply(r, EventEnqueue, now, policy)
		require.NoError(t, err)
		assert.Equal(t, domain.StateQueued, state)
		assert.Equal(t, domain.StateQueued, r.Workflow.State)
		assert.Equal(t, now, r.StateChangedAt)
	})

	t.Run("completed respects cooldown", func(t *testing.T) {
		t.Parallel()

		r := &domain.Remark{
			ID:             uuid.New(),
			Workflow:       &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateCompleted},
			StateChangedAt: now.Add(-4 * time.Minute),
		}

		_, err := Apply(r, EventEnqueue, now, policy)
		assert.ErrorIs(t, err, ErrCooldown)
		assert.Equal(t, domain.StateCompleted, r.Workflow.State, "refused transition leaves state untouched")

		_, err = Apply(r, EventEnqueue, now.Add(61*time.Second), policy)
		require.NoError(t, err)
		assert.Equal(t, domain.StateQueued, r.Workflow.State)
	})

	t.Run("failed retries immediately", func(t *testing.T) {
		t.Parallel()

		r := &domain.Remark{
			ID:             uuid.New(),
			Workflow:       &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateFailed},
			StateChangedAt: now,
		}

		_, err := Apply(r, EventEnqueue, now, policy)
		require.NoError(t, err)
	})

	t.Run("plain remark", func(t *testing.T) {
		t.Parallel()

		_, err := Apply(&domain.Remark{Body: "hi"}, EventEnqueue, now, policy)
		assert.ErrorIs(t, err, ErrNotTagged)
	})
}

func TestForce(t *testing.T) {
	t.Parallel()

	now := time.Now()
	r := &domain.Remark{Workflow: &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StatePending}}

	require.NoError(t, Force(r, domain.StateCompleted, now))
	assert.Equal(t, domain.StateCompleted, r.Workflow.State)

	assert.ErrorIs(t, Force(r, "bogus", now), domain.ErrInvalidWorkflowTag)
	assert.ErrorIs(t, Force(&domain.Remark{}, domain.StateCompleted, now), ErrNotTagged)
}
