package workflow

import (
	"time"

	"github.com/phrazzld/checklist-api/internal/domain"
)

// RetryEligible reports whether the remark may be enqueued now.
//
// A completed ai-todo becomes eligible once now >= completion time +
// cooldown, since its result may still be in use. A failed one is eligible
// immediately, as is a pending one. Anything else is not eligible.
func RetryEligible(r *domain.Remark, now time.Time, cooldown time.Duration) bool {
	if r.Workflow == nil || r.Workflow.Family != domain.FamilyAITodo {
		return false
	}

	switch r.Workflow.State {
	case domain.StatePending, domain.StateFailed:
		return true
	case domain.StateCompleted:
		return !now.Before(r.LastStateChange().Add(cooldown))
	default:
		return false
	}
}

// RetryAvailableAt returns when a completed ai-todo becomes eligible, or the
// zero time when eligibility does not depend on the clock.
func RetryAvailableAt(r *domain.Remark, cooldown time.Duration) time.Time {
	if !r.Workflow.Is(domain.FamilyAITodo, domain.StateCompleted) {
		return time.Time{}
	}
	return r.LastStateChange().Add(cooldown)
}
