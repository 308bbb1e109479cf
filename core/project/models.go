// Package project holds the Project and Task records the deadline workflow reads and patches.
// Creating and editing them belongs to the dashboard's CRUD layer.
package project

import (
	"context"
	"time"

	"github.com/projectpulse/pulse/core"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
	StatusDelayed    TaskStatus = "delayed"
)

var (
	// errors
	ErrProjectNotFound = core.NewNotFoundError("project not found")
	ErrTaskNotFound    = core.NewNotFoundError("task not found")
)

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TeamID      string    `json:"teamId"`
	Status      string    `json:"status"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"` // the project deadline
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         TaskStatus `json:"status"`
	Priority       string     `json:"priority"`
	AssigneeID     string     `json:"assigneeId"`
	ProjectID      string     `json:"projectId"`
	Domain         string     `json:"domain"`
	EstimatedHours float64    `json:"estimatedHours"`
	ActualHours    float64    `json:"actualHours"`
	StartDate      time.Time  `json:"startDate"`
	DueDate        time.Time  `json:"dueDate"`
	CompletedDate  *time.Time `json:"completedDate,omitempty"`
	DelayReason    string     `json:"delayReason,omitempty"`
	Dependencies   []string   `json:"dependencies"` // advisory only
	CreatedAt      time.Time  `json:"createdAt"`
}

// CompletedLate reports whether the task was completed strictly after its due date.
func (t Task) CompletedLate() bool {
	return t.CompletedDate != nil && t.CompletedDate.After(t.DueDate)
}

// Repository is the Entity Store contract for projects and tasks.
type Repository interface {
	CreateProject(ctx context.Context, p Project) (Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	// GetProjectForUpdate is GetProject holding a row lock until the surrounding transaction ends.
	GetProjectForUpdate(ctx context.Context, id string) (Project, error)
	UpdateProjectEndDate(ctx context.Context, id string, endDate time.Time) error

	CreateTask(ctx context.Context, t Task) (Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	GetTaskForUpdate(ctx context.Context, id string) (Task, error)
	// QueryTasksByProject returns the project's tasks in creation order.
	QueryTasksByProject(ctx context.Context, projectID string) ([]Task, error)
	UpdateTaskDueDate(ctx context.Context, id string, dueDate time.Time) error
}
