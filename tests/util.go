package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/extension"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/user"
	logsvc "github.com/projectpulse/pulse/services/logger"
)

// NewLogger returns a logger that discards everything.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewLogrus(io.Discard, core.Conf), core.Conf)
}

// NewValidator returns a validator with every custom tag of the app registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	extension.InitValidators(validate, translator)
	return validate, translator
}

// Date parses a "2006-01-02" date or fails the test.
func Date(t *testing.T, s string) time.Time {
	d, err := time.Parse(core.DateLayout, s)
	if err != nil {
		t.Fatalf("Date(%q) failed: %v", s, err)
	}
	return d
}

func DatePtr(t *testing.T, s string) *time.Time {
	d := Date(t, s)
	return &d
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateProject stores prj, defaulting its status and creation time.
func CreateProject(t *testing.T, repo project.Repository, prj project.Project) project.Project {
	if prj.Status == "" {
		prj.Status = "active"
	}
	if prj.CreatedAt.IsZero() {
		prj.CreatedAt = time.Now().UTC()
	}
	prj, err := repo.CreateProject(context.Background(), prj)
	if err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	return prj
}

// CreateTask stores task, defaulting its status, priority and creation time.
func CreateTask(t *testing.T, repo project.Repository, task project.Task) project.Task {
	if task.Status == "" {
		task.Status = project.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task, err := repo.CreateTask(context.Background(), task)
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return task
}
