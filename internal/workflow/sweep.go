package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
)

// Reset describes one remark returned to pending by Sweep.
type Reset struct {
	TaskID   uuid.UUID
	RemarkID uuid.UUID
	Family   domain.WorkflowFamily
	// Notice is the system remark appended beneath the reset remark.
	Notice *domain.Remark
	// RunningSince is the last state write that made the remark stale.
	RunningSince time.Time
}

// Sweep returns every remark that has been running for longer than threshold
// to pending and appends one system remark beneath each, noting the reset.
// Staleness is judged only by wall-clock time since the last state write;
// there is no heartbeat. A remark exactly at the threshold is left alone.
//
// The checklist is modified in place. newID may be nil, in which case random
// IDs are used.
func Sweep(c *domain.Checklist, now time.Time, threshold time.Duration, newID func() uuid.UUID) []Reset {
	if newID == nil {
		newID = uuid.New
	}

	var resets []Reset
	for _, task := range c.Tasks {
		// Appending while ranging is safe: the range expression is evaluated
		// once, and the appended notices are never running.
		for _, r := range task.Remarks {
			if r.Workflow == nil || r.Workflow.State != domain.StateRunning {
				continue
			}

			since := r.LastStateChange()
			if now.Sub(since) <= threshold {
				continue
			}

			if _, err := Transition(*r.Workflow, EventReset); err != nil {
				continue
			}
			r.Workflow.State = domain.StatePending
			r.StateChangedAt = now.UTC()

			parent := r.ID
			notice := &domain.Remark{
				ID:        newID(),
				Body:      resetNotice(r.Workflow.Family, threshold),
				Author:    domain.SystemAuthor,
				Timestamp: now.UTC(),
				ParentID:  &parent,
			}
			task.Remarks = append(task.Remarks, notice)

			resets = append(resets, Reset{
				TaskID:       task.ID,
				RemarkID:     r.ID,
				Family:       r.Workflow.Family,
				Notice:       notice,
				RunningSince: since,
			})
		}
	}

	return resets
}

func resetNotice(family domain.WorkflowFamily, threshold time.Duration) string {
	return fmt.Sprintf("Automatically reset %s to pending: no result after %s.", family, threshold)
}
