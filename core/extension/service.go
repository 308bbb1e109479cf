package extension

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

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("extension request not found")
	ErrNotPending       = core.NewConflictError("extension request has already been responded to")
	ErrTaskNotInProject = errors.New("task does not belong to this project")

	nowFunc = time.Now
)

type (
	Repository interface {
		CreateExtensionRequest(ctx context.Context, req Request) (Request, error)
		GetExtensionRequest(ctx context.Context, id string) (Request, error)
		// QueryExtensionRequests returns the matching requests, newest first.
		QueryExtensionRequests(ctx context.Context, filter QueryFilter) ([]Request, error)
		// ResolveExtensionRequest stores the terminal state of req only if the stored
		// request is still pending; it returns ErrNotPending otherwise.
		ResolveExtensionRequest(ctx context.Context, req Request) (Request, error)
	}

	// Notifier is told about submitted and resolved requests once they are committed.
	Notifier interface {
		ExtensionSubmitted(ctx context.Context, req Request, task project.Task, requester user.User) error
		ExtensionResolved(ctx context.Context, req Request, task project.Task, responder user.User) error
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

// Submit files a pending extension request on behalf of a member.
func (svc *Service) Submit(ctx context.Context, actor user.User, nr NewRequest) (Request, error) {
	if err := actor.Require(user.RoleMember); err != nil {
		return Request{}, err
	}
	if err := nr.Validate(svc.validate); err != nil {
		return Request{}, err
	}

	task, err := svc.projects.GetTask(ctx, nr.TaskID)
	if err != nil {
		return Request{}, err
	}
	if _, err = svc.projects.GetProject(ctx, nr.ProjectID); err != nil {
		return Request{}, err
	}
	if task.ProjectID != nr.ProjectID {
		return Request{}, core.NewValidationError(ErrTaskNotInProject, core.FieldError{Field: "taskId", Error: ErrTaskNotInProject.Error()})
	}

	req, err := svc.repo.CreateExtensionRequest(ctx, Request{
		TaskID:         task.ID,
		ProjectID:      nr.ProjectID,
		RequesterID:    actor.ID,
		AdditionalDays: nr.AdditionalDays,
		Reason:         nr.Reason,
		Status:         StatusPending,
		CreatedAt:      nowFunc().UTC(),
	})
	if err != nil {
		return Request{}, errors.Wrap(err, "creating extension request")
	}

	if err := svc.notifier.ExtensionSubmitted(ctx, req, task, actor); err != nil {
		svc.logger.Warn("notifying extension request submission", err, actor)
	}
	return req, nil
}

// Respond resolves a pending request. Approving it pushes the task's due date
// by the requested number of days in the same transaction.
func (svc *Service) Respond(ctx context.Context, actor user.User, id string, resp Response) (Request, error) {
	if err := actor.Require(user.ApproverRoles...); err != nil {
		return Request{}, err
	}
	if err := resp.Validate(svc.validate); err != nil {
		return Request{}, err
	}

	var (
		req  Request
		task project.Task
	)
	err := svc.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if req, err = svc.repo.GetExtensionRequest(ctx, id); err != nil {
			return err
		}
		if !req.IsPending() {
			return ErrNotPending
		}

		now := nowFunc().UTC()
		req.Status = resp.Status
		req.ResponseMessage = resp.ResponseMessage
		req.ResponderID = actor.ID
		req.RespondedAt = &now
		if req, err = svc.repo.ResolveExtensionRequest(ctx, req); err != nil {
			return err
		}

		if task, err = svc.projects.GetTaskForUpdate(ctx, req.TaskID); err != nil {
			return err
		}
		if req.Status == StatusApproved {
			task.DueDate = task.DueDate.AddDate(0, 0, req.AdditionalDays)
			if err = svc.projects.UpdateTaskDueDate(ctx, task.ID, task.DueDate); err != nil {
				return errors.Wrap(err, "extending task due date")
			}
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	if err := svc.notifier.ExtensionResolved(ctx, req, task, actor); err != nil {
		svc.logger.Warn("notifying extension request resolution", err, actor)
	}
	return req, nil
}

// List returns every request, newest first.
func (svc *Service) List(ctx context.Context, actor user.User) ([]Request, error) {
	if err := actor.Require(user.SupervisorRoles...); err != nil {
		return nil, err
	}
	return svc.repo.QueryExtensionRequests(ctx, QueryFilter{})
}

// ListPending returns the requests awaiting a response, newest first.
func (svc *Service) ListPending(ctx context.Context, actor user.User) ([]Request, error) {
	if err := actor.Require(user.SupervisorRoles...); err != nil {
		return nil, err
	}
	return svc.repo.QueryExtensionRequests(ctx, QueryFilter{Status: StatusPending})
}

// ListMine returns the actor's own requests, newest first.
func (svc *Service) ListMine(ctx context.Context, actor user.User) ([]Request, error) {
	if err := actor.Require(user.AllRoles...); err != nil {
		return nil, err
	}
	return svc.repo.QueryExtensionRequests(ctx, QueryFilter{RequesterID: actor.ID})
}

// ListByProject returns the project's requests, newest first.
func (svc *Service) ListByProject(ctx context.Context, actor user.User, projectID string) ([]Request, error) {
	if err := actor.Require(user.AllRoles...); err != nil {
		return nil, err
	}
	if _, err := svc.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryExtensionRequests(ctx, QueryFilter{ProjectID: projectID})
}

type nopNotifier struct{}

func (nopNotifier) ExtensionSubmitted(context.Context, Request, project.Task, user.User) error {
	return nil
}

func (nopNotifier) ExtensionResolved(context.Context, Request, project.Task, user.User) error {
	return nil
}
