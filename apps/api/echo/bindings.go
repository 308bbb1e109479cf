package echoapi

import (
	"time"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/report"
	"github.com/projectpulse/pulse/core/reschedule"
)

const errInvalidDate = "invalid date, expected YYYY-MM-DD or RFC3339"

// dates collects the parse errors of the date fields of a request body.
type dates struct {
	errs []core.FieldError
}

// parse leaves dst zero when value is empty so the "required" rule reports it.
func (d *dates) parse(field, value string, dst *time.Time) {
	if value == "" {
		return
	}
	t, err := core.ParseDate(value)
	if err != nil {
		d.errs = append(d.errs, core.FieldError{Field: field, Error: errInvalidDate})
		return
	}
	*dst = t
}

func (d *dates) err() error {
	if len(d.errs) == 0 {
		return nil
	}
	return core.NewValidationError(nil, d.errs...)
}

type (
	RescheduleRequest struct {
		NewDeadline string `json:"newDeadline"`
		Reason      string `json:"reason"`
	}

	GenerateReportRequest struct {
		ProjectID     string `json:"projectId"`
		WeekStartDate string `json:"weekStartDate"`
		WeekEndDate   string `json:"weekEndDate"`
	}
)

func (r RescheduleRequest) Reschedule() (reschedule.Reschedule, error) {
	var d dates
	rs := reschedule.Reschedule{Reason: r.Reason}
	d.parse("newDeadline", r.NewDeadline, &rs.NewDeadline)
	return rs, d.err()
}

func (r GenerateReportRequest) NewReport() (report.NewReport, error) {
	var d dates
	nr := report.NewReport{ProjectID: r.ProjectID}
	d.parse("weekStartDate", r.WeekStartDate, &nr.WeekStartDate)
	d.parse("weekEndDate", r.WeekEndDate, &nr.WeekEndDate)
	return nr, d.err()
}
