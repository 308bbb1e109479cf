package extension

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/projectpulse/pulse/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

const (
	MinAdditionalDays = 1
	MaxAdditionalDays = 30
	MinReasonLen      = 10
)

// Request is a member's ask for more calendar days on a task.
// It starts pending and is resolved exactly once.
type Request struct {
	ID              string     `json:"id"`
	TaskID          string     `json:"taskId"`
	ProjectID       string     `json:"projectId"`
	RequesterID     string     `json:"requesterId"`
	AdditionalDays  int        `json:"additionalDays"`
	Reason          string     `json:"reason"`
	Status          Status     `json:"status"`
	ResponseMessage string     `json:"responseMessage,omitempty"`
	ResponderID     string     `json:"responderId,omitempty"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (r Request) IsPending() bool { return r.Status == StatusPending }

// NewRequest contains the information needed to submit a Request.
type NewRequest struct {
	TaskID         string `json:"taskId" validate:"required"`
	ProjectID      string `json:"projectId" validate:"required"`
	AdditionalDays int    `json:"additionalDays" validate:"min=1,max=30"`
	Reason         string `json:"reason" validate:"required,minlentrim=10"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.TaskID = core.CleanString(nr.TaskID)
	nr.ProjectID = core.CleanString(nr.ProjectID)
	nr.Reason = core.CleanString(nr.Reason)
	return validate.Struct(nr)
}

// Response is a leader's or manager's decision on a pending Request.
type Response struct {
	Status          Status `json:"status" validate:"required,status_decision"`
	ResponseMessage string `json:"responseMessage" validate:"required,notblank"`
}

func (r *Response) Validate(validate *validator.Validate) error {
	r.Status = Status(core.CleanString(string(r.Status), true /* lower */))
	r.ResponseMessage = core.CleanString(r.ResponseMessage)
	return validate.Struct(r)
}

type QueryFilter struct {
	Status      Status
	RequesterID string
	ProjectID   string
}

// Match reports whether r passes every set criterion.
func (f QueryFilter) Match(r Request) bool {
	return (f.Status == "" || r.Status == f.Status) &&
		(f.RequesterID == "" || r.RequesterID == f.RequesterID) &&
		(f.ProjectID == "" || r.ProjectID == f.ProjectID)
}
