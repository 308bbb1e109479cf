package report

import (
	"time"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/project"
)

const (
	TimelineWidth = 30

	solidGlyph = '█'
	lightGlyph = '░'
	blankGlyph = ' '
)

// Span is the overall date range a timeline bar covers.
type Span struct {
	Start time.Time
	End   time.Time
}

// ProjectSpan runs from the earliest task creation (or start) to the latest task due date.
func ProjectSpan(tasks []project.Task) Span {
	var s Span
	for _, t := range tasks {
		for _, d := range []time.Time{t.CreatedAt, t.StartDate} {
			if !d.IsZero() && (s.Start.IsZero() || d.Before(s.Start)) {
				s.Start = d
			}
		}
		if !t.DueDate.IsZero() && t.DueDate.After(s.End) {
			s.End = t.DueDate
		}
	}
	return Span{Start: core.Date(s.Start), End: core.Date(s.End)}
}

// Days is the whole number of days in the span.
func (s Span) Days() int {
	return daysBetween(s.Start, s.End)
}

// Timeline renders a TimelineWidth wide bar: solid from the task start up to its
// completion point, light from there up to its due date, blank elsewhere.
func Timeline(span Span, start, due time.Time, percent int) string {
	bar := make([]rune, TimelineWidth)
	for i := range bar {
		bar[i] = blankGlyph
	}

	total := span.Days()
	if total <= 0 {
		return string(bar)
	}

	startDays := max(0, daysBetween(span.Start, start))
	dueDays := min(total, daysBetween(span.Start, due))

	startPos := int(float64(startDays) / float64(total) * TimelineWidth)
	endPos := int(float64(dueDays) / float64(total) * TimelineWidth)
	completionPos := int(float64(startPos) + float64(endPos-startPos)*float64(percent)/100)

	for i := startPos; i < min(completionPos, TimelineWidth); i++ {
		bar[i] = solidGlyph
	}
	for i := completionPos; i < min(endPos, TimelineWidth); i++ {
		bar[i] = lightGlyph
	}
	return string(bar)
}

func daysBetween(from, to time.Time) int {
	return int(core.Date(to).Sub(core.Date(from)).Hours() / 24)
}
