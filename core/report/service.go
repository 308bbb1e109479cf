package report

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("weekly report not found")

	nowFunc = time.Now
)

type (
	Repository interface {
		CreateWeeklyReport(ctx context.Context, rpt WeeklyReport) (WeeklyReport, error)
		GetWeeklyReport(ctx context.Context, id string) (WeeklyReport, error)
		// QueryWeeklyReports returns the reports of projectID (all when empty), newest first.
		QueryWeeklyReports(ctx context.Context, projectID string) ([]WeeklyReport, error)
	}

	Service struct {
		repo        Repository
		projects    project.Repository
		reschedules reschedule.Repository
		users       user.Repository
		validate    *validator.Validate
	}
)

func NewService(
	repo Repository,
	projects project.Repository,
	reschedules reschedule.Repository,
	users user.Repository,
	validate *validator.Validate,
) *Service {
	vala.BeginValidation().Validate(
		core.NotNil(repo, "repo"),
		core.NotNil(projects, "projects"),
		core.NotNil(reschedules, "reschedules"),
		core.NotNil(users, "users"),
		core.NotNil(validate, "validate"),
	).CheckAndPanic()

	return &Service{
		repo:        repo,
		projects:    projects,
		reschedules: reschedules,
		users:       users,
		validate:    validate,
	}
}

// Generate snapshots the project's reschedule history and delayed tasks.
// It never modifies the project or its tasks.
func (svc *Service) Generate(ctx context.Context, actor user.User, nr NewReport) (WeeklyReport, error) {
	if err := actor.Require(user.ApproverRoles...); err != nil {
		return WeeklyReport{}, err
	}
	if err := nr.Validate(svc.validate); err != nil {
		return WeeklyReport{}, err
	}

	prj, err := svc.projects.GetProject(ctx, nr.ProjectID)
	if err != nil {
		return WeeklyReport{}, err
	}
	logs, err := svc.reschedules.QueryRescheduleLogs(ctx, prj.ID)
	if err != nil {
		return WeeklyReport{}, errors.Wrap(err, "querying reschedule logs")
	}
	tasks, err := svc.projects.QueryTasksByProject(ctx, prj.ID)
	if err != nil {
		return WeeklyReport{}, errors.Wrap(err, "querying tasks")
	}

	now := nowFunc().UTC()
	rpt := WeeklyReport{
		ProjectID:             prj.ID,
		WeekStartDate:         nr.WeekStartDate,
		WeekEndDate:           nr.WeekEndDate,
		ProjectDueDate:        OriginalDeadline(prj, logs),
		CurrentProjectEndDate: prj.EndDate,
		Reschedules:           RescheduleEntries(logs),
		DelayDetails:          DelayDetails(tasks, now),
		GeneratedByID:         actor.ID,
		GeneratedAt:           now,
	}
	rpt.DelayCount = len(rpt.DelayDetails)

	if rpt, err = svc.repo.CreateWeeklyReport(ctx, rpt); err != nil {
		return WeeklyReport{}, errors.Wrap(err, "creating weekly report")
	}
	return rpt, nil
}

// OriginalDeadline is the end date the project had before its first reschedule.
func OriginalDeadline(prj project.Project, logs []reschedule.Log) time.Time {
	if len(logs) == 0 {
		return prj.EndDate
	}
	first := logs[0]
	for _, lg := range logs[1:] {
		if lg.CreatedAt.Before(first.CreatedAt) {
			first = lg
		}
	}
	return first.OldDeadline
}

func RescheduleEntries(logs []reschedule.Log) []RescheduleEntry {
	entries := make([]RescheduleEntry, 0, len(logs))
	for _, lg := range logs {
		entries = append(entries, RescheduleEntry{
			OldDate:        lg.OldDeadline,
			NewDate:        lg.NewDeadline,
			Reason:         lg.Reason,
			RescheduleDate: lg.CreatedAt,
		})
	}
	return entries
}

// List returns every report, newest first.
func (svc *Service) List(ctx context.Context, actor user.User) ([]WeeklyReport, error) {
	if err := actor.Require(user.SupervisorRoles...); err != nil {
		return nil, err
	}
	return svc.repo.QueryWeeklyReports(ctx, "")
}

// ListByProject returns the project's reports, newest first.
func (svc *Service) ListByProject(ctx context.Context, actor user.User, projectID string) ([]WeeklyReport, error) {
	if err := actor.Require(user.SupervisorRoles...); err != nil {
		return nil, err
	}
	if _, err := svc.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryWeeklyReports(ctx, projectID)
}

func (svc *Service) Get(ctx context.Context, actor user.User, id string) (WeeklyReport, error) {
	if err := actor.Require(user.SupervisorRoles...); err != nil {
		return WeeklyReport{}, err
	}
	return svc.repo.GetWeeklyReport(ctx, id)
}
