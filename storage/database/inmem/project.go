package inmemdb

import (
	"context"
	"slices"
	"time"

	"github.com/projectpulse/pulse/core/project"
)

type projectRepository struct {
	db *DB
}

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db}
}

func (repo *projectRepository) CreateProject(ctx context.Context, prj project.Project) (project.Project, error) {
	defer repo.db.lock(ctx)()

	prj.ID = newID(prj.ID)
	repo.db.project[prj.ID] = record[project.Project]{seq: repo.db.nextSeq(), val: prj}
	return prj, nil
}

func (repo *projectRepository) GetProject(ctx context.Context, id string) (project.Project, error) {
	defer repo.db.rlock(ctx)()

	if r, ok := repo.db.project[id]; ok {
		return r.val, nil
	}
	return project.Project{}, project.ErrProjectNotFound
}

// GetProjectForUpdate relies on transactions holding the store's write lock.
func (repo *projectRepository) GetProjectForUpdate(ctx context.Context, id string) (project.Project, error) {
	return repo.GetProject(ctx, id)
}

func (repo *projectRepository) UpdateProjectEndDate(ctx context.Context, id string, endDate time.Time) error {
	defer repo.db.lock(ctx)()

	r, ok := repo.db.project[id]
	if !ok {
		return project.ErrProjectNotFound
	}
	r.val.EndDate = endDate
	repo.db.project[id] = r
	return nil
}

func (repo *projectRepository) CreateTask(ctx context.Context, task project.Task) (project.Task, error) {
	defer repo.db.lock(ctx)()

	if _, ok := repo.db.project[task.ProjectID]; !ok {
		return project.Task{}, project.ErrProjectNotFound
	}
	task.ID = newID(task.ID)
	task.Dependencies = slices.Clone(task.Dependencies)
	repo.db.task[task.ID] = record[project.Task]{seq: repo.db.nextSeq(), val: task}
	return task, nil
}

func (repo *projectRepository) GetTask(ctx context.Context, id string) (project.Task, error) {
	defer repo.db.rlock(ctx)()

	if r, ok := repo.db.task[id]; ok {
		return cloneTask(r.val), nil
	}
	return project.Task{}, project.ErrTaskNotFound
}

func (repo *projectRepository) GetTaskForUpdate(ctx context.Context, id string) (project.Task, error) {
	return repo.GetTask(ctx, id)
}

func (repo *projectRepository) QueryTasksByProject(ctx context.Context, projectID string) ([]project.Task, error) {
	defer repo.db.rlock(ctx)()

	keep := func(t project.Task) bool { return t.ProjectID == projectID }
	byCreation := func(a, b project.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	tasks := repo.db.task.rows(keep, byCreation, false)
	for i := range tasks {
		tasks[i] = cloneTask(tasks[i])
	}
	return tasks, nil
}

func (repo *projectRepository) UpdateTaskDueDate(ctx context.Context, id string, dueDate time.Time) error {
	defer repo.db.lock(ctx)()

	r, ok := repo.db.task[id]
	if !ok {
		return project.ErrTaskNotFound
	}
	r.val.DueDate = dueDate
	repo.db.task[id] = r
	return nil
}

func cloneTask(t project.Task) project.Task {
	t.Dependencies = slices.Clone(t.Dependencies)
	if t.CompletedDate != nil {
		completed := *t.CompletedDate
		t.CompletedDate = &completed
	}
	return t
}
