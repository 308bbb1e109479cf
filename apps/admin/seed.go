package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/project"
)

type (
	seedTask struct {
		Title          string   `json:"title"`
		Description    string   `json:"description"`
		Status         string   `json:"status"`
		Priority       string   `json:"priority"`
		AssigneeEmail  string   `json:"assigneeEmail"`
		Domain         string   `json:"domain"`
		EstimatedHours float64  `json:"estimatedHours"`
		StartDate      string   `json:"startDate"`
		DueDate        string   `json:"dueDate"`
		CompletedDate  string   `json:"completedDate"`
		DelayReason    string   `json:"delayReason"`
		Dependencies   []string `json:"dependencies"`
	}

	seedProject struct {
		Name         string     `json:"name"`
		Description  string     `json:"description"`
		TeamID       string     `json:"teamId"`
		Status       string     `json:"status"`
		StartDate    string     `json:"startDate"`
		EndDate      string     `json:"endDate"`
		CreatedBy    string     `json:"createdByEmail"`
		Tasks        []seedTask `json:"tasks"`
	}

	seedFile struct {
		Projects []seedProject `json:"projects"`
	}
)

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "seed FILE",
		Short:   "Load projects and tasks from a JSON file",
		PreRunE: cli.loadStore,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading seed file")
			}
			var sf seedFile
			if err = json.Unmarshal(data, &sf); err != nil {
				return errors.Wrap(err, "decoding seed file")
			}

			seeded, err := cli.seed(cmd.Context(), sf)
			if err != nil {
				return err
			}
			for _, sp := range seeded {
				cli.printf("seeded project %q (%s) with %d tasks\n", sp.project.Name, sp.project.ID, sp.tasks)
			}
			return nil
		},
	}
}

type seeded struct {
	project project.Project
	tasks   int
}

// seed stores every project of sf with its tasks, all or nothing.
func (cli *commandLine) seed(ctx context.Context, sf seedFile) ([]seeded, error) {
	var result []seeded
	err := cli.store.Tx.RunInTx(ctx, func(ctx context.Context) error {
		result = result[:0]
		for _, sp := range sf.Projects {
			prj, err := cli.seedProject(ctx, sp)
			if err != nil {
				return errors.Wrapf(err, "project %q", sp.Name)
			}

			for _, st := range sp.Tasks {
				if err = cli.seedTask(ctx, prj, st); err != nil {
					return errors.Wrapf(err, "project %q: task %q", sp.Name, st.Title)
				}
			}
			result = append(result, seeded{project: prj, tasks: len(sp.Tasks)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (cli *commandLine) seedProject(ctx context.Context, sp seedProject) (project.Project, error) {
	var err error
	prj := project.Project{
		Name:        sp.Name,
		Description: sp.Description,
		TeamID:      sp.TeamID,
		Status:      sp.Status,
		CreatedAt:   time.Now().UTC(),
	}
	if prj.Status == "" {
		prj.Status = "active"
	}
	if prj.StartDate, err = parseSeedDate("startDate", sp.StartDate); err != nil {
		return project.Project{}, err
	}
	if prj.EndDate, err = parseSeedDate("endDate", sp.EndDate); err != nil {
		return project.Project{}, err
	}
	if sp.CreatedBy != "" {
		usr, err := cli.usrSvc.GetByEmail(ctx, sp.CreatedBy)
		if err != nil {
			return project.Project{}, errors.Wrapf(err, "creator %s", sp.CreatedBy)
		}
		prj.CreatedBy = usr.ID
	}
	return cli.store.Projects.CreateProject(ctx, prj)
}

func (cli *commandLine) seedTask(ctx context.Context, prj project.Project, st seedTask) error {
	var err error
	task := project.Task{
		Title:          st.Title,
		Description:    st.Description,
		Status:         project.TaskStatus(st.Status),
		Priority:       st.Priority,
		ProjectID:      prj.ID,
		Domain:         st.Domain,
		EstimatedHours: st.EstimatedHours,
		DelayReason:    st.DelayReason,
		Dependencies:   st.Dependencies,
		CreatedAt:      time.Now().UTC(),
	}
	if task.Status == "" {
		task.Status = project.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	if task.StartDate, err = parseSeedDate("startDate", st.StartDate); err != nil {
		return err
	}
	if task.DueDate, err = parseSeedDate("dueDate", st.DueDate); err != nil {
		return err
	}
	if st.CompletedDate != "" {
		completed, err := parseSeedDate("completedDate", st.CompletedDate)
		if err != nil {
			return err
		}
		task.CompletedDate = &completed
	}
	if st.AssigneeEmail != "" {
		usr, err := cli.usrSvc.GetByEmail(ctx, st.AssigneeEmail)
		if err != nil {
			return errors.Wrapf(err, "assignee %s", st.AssigneeEmail)
		}
		task.AssigneeID = usr.ID
	}
	_, err = cli.store.Projects.CreateTask(ctx, task)
	return err
}

func parseSeedDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := core.ParseDate(value)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid %s", field)
	}
	return t, nil
}
