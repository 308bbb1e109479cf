package reschedule

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/projectpulse/pulse/core"
)

// Change classifies a deadline move. It is derived from the two dates, never stored.
type Change string

const (
	ChangeExtended     Change = "Extended"
	ChangeMovedEarlier Change = "Moved Earlier"
	ChangeUnchanged    Change = "Unchanged"
)

// Log is an append-only record of a direct project deadline change.
type Log struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"projectId"`
	OldDeadline     time.Time `json:"oldDeadline"`
	NewDeadline     time.Time `json:"newDeadline"`
	Reason          string    `json:"reason"`
	RescheduledByID string    `json:"rescheduledById"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (l Log) Change() Change {
	switch {
	case l.NewDeadline.After(l.OldDeadline):
		return ChangeExtended
	case l.NewDeadline.Before(l.OldDeadline):
		return ChangeMovedEarlier
	default:
		return ChangeUnchanged
	}
}

func (l Log) MarshalJSON() ([]byte, error) {
	type log Log
	return json.Marshal(struct {
		log
		Change Change `json:"change"`
	}{log(l), l.Change()})
}

// Reschedule contains the information needed to move a project deadline.
type Reschedule struct {
	NewDeadline time.Time `json:"newDeadline" validate:"required"`
	Reason      string    `json:"reason" validate:"required,notblank"`
}

func (rs *Reschedule) Validate(validate *validator.Validate) error {
	rs.Reason = core.CleanString(rs.Reason)
	rs.NewDeadline = rs.NewDeadline.UTC()
	return validate.Struct(rs)
}
