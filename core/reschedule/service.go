package reschedule

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/user"
)

var nowFunc = time.Now

type (
	Repository interface {
		CreateRescheduleLog(ctx context.Context, lg Log) (Log, error)
		// QueryRescheduleLogs returns the project's logs, oldest first.
		QueryRescheduleLogs(ctx context.Context, projectID string) ([]Log, error)
	}

	// Notifier is told about committed deadline changes.
	Notifier interface {
		DeadlineRescheduled(ctx context.Context, lg Log, prj project.Project, actor user.User) error
	}

	Service struct {
		tx       core.Transactor
		repo     Repository
		projects project.Repository
		validate *validator.Validate
		logger   core.Logger
		notifier Notifier
	}
)

func NewService(
	tx core.Transactor,
	repo Repository,
	projects project.Repository,
	validate *validator.Validate,
	logger core.Logger,
	notifier Notifier,
) *Service {
	vala.BeginValidation().Validate(
		core.NotNil(tx, "tx"),
		core.NotNil(repo, "repo"),
		core.NotNil(projects, "projects"),
		core.NotNil(validate, "validate"),
		core.NotNil(logger, "logger"),
	).CheckAndPanic()

	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		tx:       tx,
		repo:     repo,
		projects: projects,
		validate: validate,
		logger:   logger,
		notifier: notifier,
	}
}

// Reschedule moves the project's end date and appends the matching log in one transaction.
func (svc *Service) Reschedule(ctx context.Context, actor user.User, projectID string, rs Reschedule) (Log, error) {
	if err := actor.Require(user.ApproverRoles...); err != nil {
		return Log{}, err
	}
	if err := rs.Validate(svc.validate); err != nil {
		return Log{}, err
	}

	var (
		lg  Log
		prj project.Project
	)
	err := svc.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if prj, err = svc.projects.GetProjectForUpdate(ctx, projectID); err != nil {
			return err
		}
		if err = svc.projects.UpdateProjectEndDate(ctx, prj.ID, rs.NewDeadline); err != nil {
			return errors.Wrap(err, "updating project end date")
		}
		lg, err = svc.repo.CreateRescheduleLog(ctx, Log{
			ProjectID:       prj.ID,
			OldDeadline:     prj.EndDate,
			NewDeadline:     rs.NewDeadline,
			Reason:          rs.Reason,
			RescheduledByID: actor.ID,
			CreatedAt:       nowFunc().UTC(),
		})
		return errors.Wrap(err, "appending reschedule log")
	})
	if err != nil {
		return Log{}, err
	}
	prj.EndDate = rs.NewDeadline

	if err := svc.notifier.DeadlineRescheduled(ctx, lg, prj, actor); err != nil {
		svc.logger.Warn("notifying deadline reschedule", err, actor)
	}
	return lg, nil
}

// ListLogs returns the project's reschedule history, oldest first.
func (svc *Service) ListLogs(ctx context.Context, actor user.User, projectID string) ([]Log, error) {
	if err := actor.Require(user.AllRoles...); err != nil {
		return nil, err
	}
	if _, err := svc.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRescheduleLogs(ctx, projectID)
}

type nopNotifier struct{}

func (nopNotifier) DeadlineRescheduled(context.Context, Log, project.Project, user.User) error {
	return nil
}
