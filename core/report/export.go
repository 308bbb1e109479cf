package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/user"
)

const unassigned = "Unassigned"

// CSVHeader is the fixed column layout of an export.
var CSVHeader = []string{
	"Task ID", "Task Name", "Status", "Start Date", "Due Date", "Assigned User", "Progress (%)", "Timeline",
}

// ExportCSV renders a stored report against the project's current tasks.
func (svc *Service) ExportCSV(ctx context.Context, actor user.User, reportID string) (Export, error) {
	if err := actor.Require(user.ApproverRoles...); err != nil {
		return Export{}, err
	}

	rpt, err := svc.repo.GetWeeklyReport(ctx, reportID)
	if err != nil {
		return Export{}, err
	}
	prj, err := svc.projects.GetProject(ctx, rpt.ProjectID)
	if err != nil {
		return Export{}, err
	}
	tasks, err := svc.projects.QueryTasksByProject(ctx, prj.ID)
	if err != nil {
		return Export{}, errors.Wrap(err, "querying tasks")
	}

	names := make(map[string]string)
	assignee := func(id string) (string, error) {
		if id == "" {
			return unassigned, nil
		}
		if name, ok := names[id]; ok {
			return name, nil
		}
		usr, err := svc.users.GetUserByID(ctx, id)
		switch {
		case core.IsNotFound(err):
			names[id] = unassigned
		case err != nil:
			return "", errors.Wrap(err, "getting assignee")
		default:
			names[id] = usr.Name
		}
		return names[id], nil
	}

	span := ProjectSpan(tasks)
	var b strings.Builder
	b.WriteString(strings.Join(CSVHeader, ","))
	b.WriteString("\n")
	for i, t := range tasks {
		name, err := assignee(t.AssigneeID)
		if err != nil {
			return Export{}, err
		}
		start := taskStart(t)
		pct := CompletionPercent(t.Status)
		row := []string{
			strconv.Itoa(i + 1),
			quote(t.Title),
			StatusLabel(t.Status),
			start.UTC().Format(core.DateLayout),
			t.DueDate.UTC().Format(core.DateLayout),
			csvField(name),
			strconv.Itoa(pct),
			Timeline(span, start, t.DueDate, pct),
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}

	return Export{
		Filename: ExportFilename(prj.Name, rpt),
		Content:  []byte(b.String()),
	}, nil
}

// ExportFilename names the CSV after the project and the report week.
func ExportFilename(projectName string, rpt WeeklyReport) string {
	return fmt.Sprintf(
		"weekly-report-%s-%s_to_%s.csv",
		slugify(projectName),
		rpt.WeekStartDate.Format(core.DateLayout),
		rpt.WeekEndDate.Format(core.DateLayout),
	)
}

func taskStart(t project.Task) time.Time {
	if t.StartDate.IsZero() {
		return t.CreatedAt
	}
	return t.StartDate
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvField quotes s only when it would otherwise break the row.
func csvField(s string) string {
	if strings.ContainsAny(s, "\",\r\n") {
		return quote(s)
	}
	return s
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteRune('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "project"
	}
	return slug
}
