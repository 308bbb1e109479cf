package report

import (
	"math"
	"time"

	"github.com/projectpulse/pulse/core/project"
)

// CompletionPercent is the display progress of a task, derived from its status alone.
func CompletionPercent(status project.TaskStatus) int {
	switch status {
	case project.StatusCompleted:
		return 100
	case project.StatusInProgress:
		return 75
	case project.StatusDelayed:
		return 25
	default:
		return 0
	}
}

// StatusLabel is the human readable task status used in exports.
func StatusLabel(status project.TaskStatus) string {
	switch status {
	case project.StatusCompleted:
		return "Completed"
	case project.StatusInProgress:
		return "In Progress"
	case project.StatusReview:
		return "In Review"
	case project.StatusDelayed:
		return "Delayed"
	default:
		return "To Do"
	}
}

// IsDelayed reports whether the task counts as delayed in a report:
// flagged delayed, or completed after its due date.
func IsDelayed(t project.Task) bool {
	return t.Status == project.StatusDelayed || t.CompletedLate()
}

// DelayDays counts the whole days (rounded up) a task is behind.
// A completed task is measured at its completion date, an open one at now.
func DelayDays(t project.Task, now time.Time) int {
	end := now
	if t.CompletedDate != nil {
		end = *t.CompletedDate
	}
	if !end.After(t.DueDate) {
		return 0
	}
	return int(math.Ceil(end.Sub(t.DueDate).Hours() / 24))
}

// DelayDetails lists the delayed tasks, in task order.
func DelayDetails(tasks []project.Task, now time.Time) []DelayDetail {
	details := make([]DelayDetail, 0)
	for _, t := range tasks {
		if !IsDelayed(t) {
			continue
		}
		reason := t.DelayReason
		if reason == "" {
			reason = noDelayReason
		}
		details = append(details, DelayDetail{
			TaskID:    t.ID,
			TaskTitle: t.Title,
			DelayDays: DelayDays(t, now),
			Reason:    reason,
		})
	}
	return details
}
