package sqlxdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/projectpulse/pulse/core/project"
)

const (
	projectColumns = "id, name, description, team_id, status, start_date, end_date, created_by, created_at"
	taskColumns    = `id, title, description, status, priority, assignee_id, project_id, domain, estimated_hours,
	actual_hours, start_date, due_date, completed_date, delay_reason, dependencies, created_at`
)

type projectRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	TeamID      string    `db:"team_id"`
	Status      string    `db:"status"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r projectRow) project() project.Project {
	return project.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		TeamID:      r.TeamID,
		Status:      r.Status,
		StartDate:   r.StartDate.UTC(),
		EndDate:     r.EndDate.UTC(),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type taskRow struct {
	ID             string         `db:"id"`
	Title          string         `db:"title"`
	Description    string         `db:"description"`
	Status         string         `db:"status"`
	Priority       string         `db:"priority"`
	AssigneeID     null.String    `db:"assignee_id"`
	ProjectID      string         `db:"project_id"`
	Domain         string         `db:"domain"`
	EstimatedHours float64        `db:"estimated_hours"`
	ActualHours    float64        `db:"actual_hours"`
	StartDate      time.Time      `db:"start_date"`
	DueDate        time.Time      `db:"due_date"`
	CompletedDate  null.Time      `db:"completed_date"`
	DelayReason    null.String    `db:"delay_reason"`
	Dependencies   pq.StringArray `db:"dependencies"`
	CreatedAt      time.Time      `db:"created_at"`
}

func toTaskRow(t project.Task) taskRow {
	deps := pq.StringArray(t.Dependencies)
	if deps == nil {
		deps = pq.StringArray{}
	}
	return taskRow{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       t.Priority,
		AssigneeID:     null.NewString(t.AssigneeID, t.AssigneeID != ""),
		ProjectID:      t.ProjectID,
		Domain:         t.Domain,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		StartDate:      t.StartDate.UTC(),
		DueDate:        t.DueDate.UTC(),
		CompletedDate:  null.TimeFromPtr(t.CompletedDate),
		DelayReason:    null.NewString(t.DelayReason, t.DelayReason != ""),
		Dependencies:   deps,
		CreatedAt:      t.CreatedAt.UTC(),
	}
}

func (r taskRow) task() project.Task {
	t := project.Task{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         project.TaskStatus(r.Status),
		Priority:       r.Priority,
		AssigneeID:     r.AssigneeID.String,
		ProjectID:      r.ProjectID,
		Domain:         r.Domain,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
		StartDate:      r.StartDate.UTC(),
		DueDate:        r.DueDate.UTC(),
		DelayReason:    r.DelayReason.String,
		Dependencies:   []string(r.Dependencies),
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.CompletedDate.Valid {
		completed := r.CompletedDate.Time.UTC()
		t.CompletedDate = &completed
	}
	return t
}

type projectRepository struct {
	db *DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db}
}

func (repo *projectRepository) CreateProject(ctx context.Context, prj project.Project) (project.Project, error) {
	if prj.ID == "" {
		prj.ID = uuid.NewString()
	}
	const q = `
	INSERT INTO projects (id, name, description, team_id, status, start_date, end_date, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := repo.db.ext(ctx).ExecContext(ctx, q,
		prj.ID, prj.Name, prj.Description, prj.TeamID, prj.Status,
		prj.StartDate.UTC(), prj.EndDate.UTC(), prj.CreatedBy, prj.CreatedAt.UTC(),
	)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return prj, nil
}

func (repo *projectRepository) GetProject(ctx context.Context, id string) (project.Project, error) {
	return repo.getProject(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = $1", id)
}

func (repo *projectRepository) GetProjectForUpdate(ctx context.Context, id string) (project.Project, error) {
	return repo.getProject(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = $1 FOR UPDATE", id)
}

func (repo *projectRepository) getProject(ctx context.Context, q, id string) (project.Project, error) {
	var row projectRow
	if err := sqlx.GetContext(ctx, repo.db.ext(ctx), &row, q, id); err != nil {
		return project.Project{}, notFound(err, project.ErrProjectNotFound)
	}
	return row.project(), nil
}

func (repo *projectRepository) UpdateProjectEndDate(ctx context.Context, id string, endDate time.Time) error {
	res, err := repo.db.ext(ctx).ExecContext(ctx, "UPDATE projects SET end_date = $2 WHERE id = $1", id, endDate.UTC())
	if err != nil {
		return errors.Wrap(err, "updating project end date")
	}
	return checkAffected(res, project.ErrProjectNotFound)
}

func (repo *projectRepository) CreateTask(ctx context.Context, t project.Task) (project.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const q = `
	INSERT INTO tasks (id, title, description, status, priority, assignee_id, project_id, domain, estimated_hours,
		actual_hours, start_date, due_date, completed_date, delay_reason, dependencies, created_at)
	VALUES (:id, :title, :description, :status, :priority, :assignee_id, :project_id, :domain, :estimated_hours,
		:actual_hours, :start_date, :due_date, :completed_date, :delay_reason, :dependencies, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, repo.db.ext(ctx), q, toTaskRow(t)); err != nil {
		return project.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *projectRepository) GetTask(ctx context.Context, id string) (project.Task, error) {
	return repo.getTask(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
}

func (repo *projectRepository) GetTaskForUpdate(ctx context.Context, id string) (project.Task, error) {
	return repo.getTask(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1 FOR UPDATE", id)
}

func (repo *projectRepository) getTask(ctx context.Context, q, id string) (project.Task, error) {
	var row taskRow
	if err := sqlx.GetContext(ctx, repo.db.ext(ctx), &row, q, id); err != nil {
		return project.Task{}, notFound(err, project.ErrTaskNotFound)
	}
	return row.task(), nil
}

func (repo *projectRepository) QueryTasksByProject(ctx context.Context, projectID string) ([]project.Task, error) {
	var rows []taskRow
	q := "SELECT " + taskColumns + " FROM tasks WHERE project_id = $1 ORDER BY created_at, id"
	if err := sqlx.SelectContext(ctx, repo.db.ext(ctx), &rows, q, projectID); err != nil {
		return nil, errors.Wrap(err, "selecting tasks")
	}
	tasks := make([]project.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (repo *projectRepository) UpdateTaskDueDate(ctx context.Context, id string, dueDate time.Time) error {
	res, err := repo.db.ext(ctx).ExecContext(ctx, "UPDATE tasks SET due_date = $2 WHERE id = $1", id, dueDate.UTC())
	if err != nil {
		return errors.Wrap(err, "updating task due date")
	}
	return checkAffected(res, project.ErrTaskNotFound)
}
