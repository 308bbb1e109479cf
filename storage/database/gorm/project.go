package gormdb

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core/project"
)

func toProjectModel(prj project.Project) projectModel {
	return projectModel{
		ID:          prj.ID,
		Name:        prj.Name,
		Description: prj.Description,
		TeamID:      prj.TeamID,
		Status:      prj.Status,
		StartDate:   prj.StartDate.UTC(),
		EndDate:     prj.EndDate.UTC(),
		CreatedBy:   prj.CreatedBy,
		CreatedAt:   prj.CreatedAt.UTC(),
	}
}

func (m projectModel) project() project.Project {
	return project.Project{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		TeamID:      m.TeamID,
		Status:      m.Status,
		StartDate:   m.StartDate.UTC(),
		EndDate:     m.EndDate.UTC(),
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

func toTaskModel(t project.Task) taskModel {
	m := taskModel{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       t.Priority,
		AssigneeID:     t.AssigneeID,
		ProjectID:      t.ProjectID,
		Domain:         t.Domain,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		StartDate:      t.StartDate.UTC(),
		DueDate:        t.DueDate.UTC(),
		DelayReason:    t.DelayReason,
		Dependencies:   slices.Clone(t.Dependencies),
		CreatedAt:      t.CreatedAt.UTC(),
	}
	if t.CompletedDate != nil {
		completed := t.CompletedDate.UTC()
		m.CompletedDate = &completed
	}
	return m
}

func (m taskModel) task() project.Task {
	t := project.Task{
		ID:             m.ID,
		Title:          m.Title,
		Description:    m.Description,
		Status:         project.TaskStatus(m.Status),
		Priority:       m.Priority,
		AssigneeID:     m.AssigneeID,
		ProjectID:      m.ProjectID,
		Domain:         m.Domain,
		EstimatedHours: m.EstimatedHours,
		ActualHours:    m.ActualHours,
		StartDate:      m.StartDate.UTC(),
		DueDate:        m.DueDate.UTC(),
		DelayReason:    m.DelayReason,
		Dependencies:   m.Dependencies,
		CreatedAt:      m.CreatedAt.UTC(),
	}
	if m.CompletedDate != nil {
		completed := m.CompletedDate.UTC()
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
	m := toProjectModel(prj)
	if err := repo.db.conn(ctx).Create(&m).Error; err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return m.project(), nil
}

func (repo *projectRepository) GetProject(ctx context.Context, id string) (project.Project, error) {
	var m projectModel
	if err := repo.db.conn(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return project.Project{}, notFound(err, project.ErrProjectNotFound)
	}
	return m.project(), nil
}

// GetProjectForUpdate needs no row lock: sqlite transactions run over the single open connection.
func (repo *projectRepository) GetProjectForUpdate(ctx context.Context, id string) (project.Project, error) {
	return repo.GetProject(ctx, id)
}

func (repo *projectRepository) UpdateProjectEndDate(ctx context.Context, id string, endDate time.Time) error {
	res := repo.db.conn(ctx).Model(&projectModel{}).Where("id = ?", id).Update("end_date", endDate.UTC())
	if res.Error != nil {
		return errors.Wrap(res.Error, "updating project end date")
	}
	if res.RowsAffected == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

func (repo *projectRepository) CreateTask(ctx context.Context, t project.Task) (project.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m := toTaskModel(t)
	if err := repo.db.conn(ctx).Create(&m).Error; err != nil {
		return project.Task{}, errors.Wrap(err, "inserting task")
	}
	return m.task(), nil
}

func (repo *projectRepository) GetTask(ctx context.Context, id string) (project.Task, error) {
	var m taskModel
	if err := repo.db.conn(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return project.Task{}, notFound(err, project.ErrTaskNotFound)
	}
	return m.task(), nil
}

func (repo *projectRepository) GetTaskForUpdate(ctx context.Context, id string) (project.Task, error) {
	return repo.GetTask(ctx, id)
}

func (repo *projectRepository) QueryTasksByProject(ctx context.Context, projectID string) ([]project.Task, error) {
	var ms []taskModel
	if err := repo.db.conn(ctx).Where("project_id = ?", projectID).Order("created_at, id").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "selecting tasks")
	}
	tasks := make([]project.Task, 0, len(ms))
	for _, m := range ms {
		tasks = append(tasks, m.task())
	}
	return tasks, nil
}

func (repo *projectRepository) UpdateTaskDueDate(ctx context.Context, id string, dueDate time.Time) error {
	res := repo.db.conn(ctx).Model(&taskModel{}).Where("id = ?", id).Update("due_date", dueDate.UTC())
	if res.Error != nil {
		return errors.Wrap(res.Error, "updating task due date")
	}
	if res.RowsAffected == 0 {
		return project.ErrTaskNotFound
	}
	return nil
}
