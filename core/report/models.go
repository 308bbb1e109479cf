package report

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/projectpulse/pulse/core"
)

const noDelayReason = "No reason provided"

// RescheduleEntry is a copy of a reschedule log taken at generation time.
type RescheduleEntry struct {
	OldDate        time.Time `json:"oldDate"`
	NewDate        time.Time `json:"newDate"`
	Reason         string    `json:"reason"`
	RescheduleDate time.Time `json:"rescheduleDate"`
}

type DelayDetail struct {
	TaskID    string `json:"taskId"`
	TaskTitle string `json:"taskTitle"`
	DelayDays int    `json:"delayDays"`
	Reason    string `json:"reason"`
}

// WeeklyReport is a frozen snapshot of a project's schedule health for one week.
type WeeklyReport struct {
	ID                    string            `json:"id"`
	ProjectID             string            `json:"projectId"`
	WeekStartDate         time.Time         `json:"weekStartDate"`
	WeekEndDate           time.Time         `json:"weekEndDate"`
	ProjectDueDate        time.Time         `json:"projectDueDate"`
	CurrentProjectEndDate time.Time         `json:"currentProjectEndDate"`
	Reschedules           []RescheduleEntry `json:"reschedules"`
	DelayCount            int               `json:"delayCount"`
	DelayDetails          []DelayDetail     `json:"delayDetails"`
	GeneratedByID         string            `json:"generatedById"`
	GeneratedAt           time.Time         `json:"generatedAt"`
}

// NewReport contains the information needed to generate a WeeklyReport.
type NewReport struct {
	ProjectID     string    `json:"projectId" validate:"required"`
	WeekStartDate time.Time `json:"weekStartDate" validate:"required"`
	WeekEndDate   time.Time `json:"weekEndDate" validate:"required,gtefield=WeekStartDate"`
}

func (nr *NewReport) Validate(validate *validator.Validate) error {
	nr.ProjectID = core.CleanString(nr.ProjectID)
	if !nr.WeekStartDate.IsZero() {
		nr.WeekStartDate = core.Date(nr.WeekStartDate)
	}
	if !nr.WeekEndDate.IsZero() {
		nr.WeekEndDate = core.Date(nr.WeekEndDate)
	}
	return validate.Struct(nr)
}

// Export is a rendered CSV document ready to be downloaded.
type Export struct {
	Filename string
	Content  []byte
}
