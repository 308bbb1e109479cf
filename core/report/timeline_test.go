package report_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/report"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// bar builds a timeline from runs of blanks, solid and light glyphs.
func bar(runs ...interface{}) string {
	var b strings.Builder
	for i := 0; i < len(runs); i += 2 {
		b.WriteString(strings.Repeat(runs[i].(string), runs[i+1].(int)))
	}
	return b.String()
}

func TestProjectSpan(t *testing.T) {
	tasks := []project.Task{
		{CreatedAt: day(5).Add(13 * time.Hour), StartDate: day(3), DueDate: day(20)},
		{CreatedAt: day(2).Add(8 * time.Hour), DueDate: day(28).Add(17 * time.Hour)},
		{CreatedAt: day(9), DueDate: day(12)},
	}
	span := report.ProjectSpan(tasks)
	assert.Equal(t, day(2), span.Start)
	assert.Equal(t, day(28), span.End)
	assert.Equal(t, 26, span.Days())

	assert.Equal(t, 0, report.ProjectSpan(nil).Days())
}

func TestTimeline(t *testing.T) {
	span := report.Span{Start: day(1), End: day(31)}

	tests := []struct {
		name       string
		span       report.Span
		start, due time.Time
		percent    int
		want       string
	}{
		{name: "whole span, not started", span: span, start: day(1), due: day(31), percent: 0, want: bar("░", 30)},
		{name: "whole span, done", span: span, start: day(1), due: day(31), percent: 100, want: bar("█", 30)},
		{name: "whole span, in progress", span: span, start: day(1), due: day(31), percent: 75, want: bar("█", 22, "░", 8)},
		{name: "middle third, half done", span: span, start: day(11), due: day(21), percent: 50, want: bar(" ", 10, "█", 5, "░", 5, " ", 10)},
		{name: "first half, delayed", span: span, start: day(1), due: day(16), percent: 25, want: bar("█", 3, "░", 12, " ", 15)},
		{name: "starts before the span", span: span, start: day(1).AddDate(0, 0, -5), due: day(16), percent: 0, want: bar("░", 15, " ", 15)},
		{name: "due after the span", span: span, start: day(21), due: day(31).AddDate(0, 0, 10), percent: 0, want: bar(" ", 20, "░", 10)},
		{name: "empty span", span: report.Span{Start: day(1), End: day(1)}, start: day(1), due: day(1), percent: 100, want: bar(" ", 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := report.Timeline(tt.span, tt.start, tt.due, tt.percent)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, report.TimelineWidth, utf8.RuneCountInString(got))
		})
	}
}
