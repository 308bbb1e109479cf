// Package notify emails the people concerned by deadline workflow events.
package notify

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/extension"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/core/user"
)

const (
	tmplExtensionSubmitted  = "extension_submitted"
	tmplExtensionResolved   = "extension_resolved"
	tmplDeadlineRescheduled = "deadline_rescheduled"
)

// Mailer is the email backed extension.Notifier and reschedule.Notifier.
type Mailer struct {
	mail  core.EmailService
	users *user.Service
}

var (
	_ extension.Notifier  = (*Mailer)(nil)
	_ reschedule.Notifier = (*Mailer)(nil)
)

func NewMailer(mailSvc core.EmailService, usrSvc *user.Service) *Mailer {
	return &Mailer{mail: mailSvc, users: usrSvc}
}

// ExtensionSubmitted tells every active leader and manager a request awaits them.
func (m *Mailer) ExtensionSubmitted(ctx context.Context, req extension.Request, task project.Task, requester user.User) error {
	to, err := m.approvers(ctx, requester.ID)
	if err != nil || len(to) == 0 {
		return err
	}
	m.mail.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      "New deadline extension request",
		TemplateName: tmplExtensionSubmitted,
		TemplateData: map[string]interface{}{
			"RequesterName":  requester.Name,
			"AdditionalDays": req.AdditionalDays,
			"TaskTitle":      task.Title,
			"Reason":         req.Reason,
		},
	})
	return nil
}

// ExtensionResolved tells the requester the outcome.
func (m *Mailer) ExtensionResolved(ctx context.Context, req extension.Request, task project.Task, responder user.User) error {
	requester, err := m.users.GetByID(ctx, req.RequesterID)
	if err != nil {
		return errors.Wrap(err, "getting requester")
	}

	data := map[string]interface{}{
		"TaskTitle":       task.Title,
		"Status":          string(req.Status),
		"ResponderName":   responder.Name,
		"ResponseMessage": req.ResponseMessage,
		"NewDueDate":      "",
	}
	if req.Status == extension.StatusApproved {
		data["NewDueDate"] = task.DueDate.Format(core.DateLayout)
	}
	m.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{address(requester)},
		Subject:      "Your extension request was " + string(req.Status),
		TemplateName: tmplExtensionResolved,
		TemplateData: data,
	})
	return nil
}

// DeadlineRescheduled tells the other leaders and managers a project deadline moved.
func (m *Mailer) DeadlineRescheduled(ctx context.Context, lg reschedule.Log, prj project.Project, actor user.User) error {
	to, err := m.approvers(ctx, actor.ID)
	if err != nil || len(to) == 0 {
		return err
	}
	m.mail.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      "Project deadline rescheduled: " + prj.Name,
		TemplateName: tmplDeadlineRescheduled,
		TemplateData: map[string]interface{}{
			"ProjectName": prj.Name,
			"Change":      string(lg.Change()),
			"ActorName":   actor.Name,
			"OldDeadline": lg.OldDeadline.Format(core.DateLayout),
			"NewDeadline": lg.NewDeadline.Format(core.DateLayout),
			"Reason":      lg.Reason,
		},
	})
	return nil
}

func (m *Mailer) approvers(ctx context.Context, excludeID string) ([]mail.Address, error) {
	users, err := m.users.Approvers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting approvers")
	}
	to := make([]mail.Address, 0, len(users))
	for _, usr := range users {
		if usr.ID != excludeID {
			to = append(to, address(usr))
		}
	}
	return to, nil
}

func address(usr user.User) mail.Address {
	return mail.Address{Name: usr.Name, Address: usr.Email}
}
