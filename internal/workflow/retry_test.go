package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRetryEligible(t *testing.T) {
	t.Parallel()

	completedAt := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	cooldown := 5 * time.Minute

	remark := func(family domain.WorkflowFamily, state domain.WorkflowState) *domain.Remark {
		return &domain.Remark{
			ID:             uuid.New(),
			Workflow:       &domain.WorkflowTag{Family: family, State: state},
			Timestamp:      completedAt.Add(-time.Hour),
			StateChangedAt: completedAt,
		}
	}

	testCases := []struct {
		name   string
		remark *domain.Remark
		now    time.Time
		want   bool
	}{
		{"completed inside cooldown", remark(domain.FamilyAITodo, domain.StateCompleted), completedAt.Add(4 * time.Minute), false},
		{"completed at cooldown boundary", remark(domain.FamilyAITodo, domain.StateCompleted), completedAt.Add(cooldown), true},
		{"completed after cooldown", remark(domain.FamilyAITodo, domain.StateCompleted), completedAt.Add(5*time.Minute + time.Second), true},
		{"failed immediately", remark(domain.FamilyAITodo, domain.StateFailed), completedAt, true},
		{"pending", remark(domain.FamilyAITodo, domain.StatePending), completedAt, true},
		{"queued", remark(domain.FamilyAITodo, domain.StateQueued), completedAt.Add(time.Hour), false},
		{"running", remark(domain.FamilyAITodo, domain.StateRunning), completedAt.Add(time.Hour), false},
		{"prompt execution", remark(domain.FamilyPromptExecution, domain.StateFailed), completedAt.Add(time.Hour), false},
		{"plain remark", &domain.Remark{ID: uuid.New(), Body: "hi"}, completedAt, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RetryEligible(tc.remark, tc.now, cooldown))
		})
	}
}

func TestRetryEligible_FallsBackToTimestamp(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	r := &domain.Remark{
		ID:        uuid.New(),
		Workflow:  &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateCompleted},
		Timestamp: created,
	}

	assert.False(t, RetryEligible(r, created.Add(time.Minute), 5*time.Minute))
	assert.True(t, RetryEligible(r, created.Add(6*time.Minute), 5*time.Minute))
}

func TestRetryAvailableAt(t *testing.T) {
	t.Parallel()

	changed := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	completed := &domain.Remark{
		Workflow:       &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateCompleted},
		StateChangedAt: changed,
	}
	failed := &domain.Remark{
		Workflow:       &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateFailed},
		StateChangedAt: changed,
	}

	assert.Equal(t, changed.Add(5*time.Minute), RetryAvailableAt(completed, 5*time.Minute))
	assert.True(t, RetryAvailableAt(failed, 5*time.Minute).IsZero())
}
