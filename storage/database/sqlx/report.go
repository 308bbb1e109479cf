package sqlxdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core/report"
)

const reportColumns = `id, project_id, week_start_date, week_end_date, project_due_date, current_project_end_date,
	reschedules, delay_count, delay_details, generated_by_id, generated_at`

type reportRow struct {
	ID                    string         `db:"id"`
	ProjectID             string         `db:"project_id"`
	WeekStartDate         time.Time      `db:"week_start_date"`
	WeekEndDate           time.Time      `db:"week_end_date"`
	ProjectDueDate        time.Time      `db:"project_due_date"`
	CurrentProjectEndDate time.Time      `db:"current_project_end_date"`
	Reschedules           types.JSONText `db:"reschedules"`
	DelayCount            int            `db:"delay_count"`
	DelayDetails          types.JSONText `db:"delay_details"`
	GeneratedByID         string         `db:"generated_by_id"`
	GeneratedAt           time.Time      `db:"generated_at"`
}

func toReportRow(rpt report.WeeklyReport) (reportRow, error) {
	reschedules, err := json.Marshal(nonNil(rpt.Reschedules))
	if err != nil {
		return reportRow{}, err
	}
	details, err := json.Marshal(nonNil(rpt.DelayDetails))
	if err != nil {
		return reportRow{}, err
	}
	return reportRow{
		ID:                    rpt.ID,
		ProjectID:             rpt.ProjectID,
		WeekStartDate:         rpt.WeekStartDate.UTC(),
		WeekEndDate:           rpt.WeekEndDate.UTC(),
		ProjectDueDate:        rpt.ProjectDueDate.UTC(),
		CurrentProjectEndDate: rpt.CurrentProjectEndDate.UTC(),
		Reschedules:           types.JSONText(reschedules),
		DelayCount:            rpt.DelayCount,
		DelayDetails:          types.JSONText(details),
		GeneratedByID:         rpt.GeneratedByID,
		GeneratedAt:           rpt.GeneratedAt.UTC(),
	}, nil
}

func (r reportRow) report() (report.WeeklyReport, error) {
	rpt := report.WeeklyReport{
		ID:                    r.ID,
		ProjectID:             r.ProjectID,
		WeekStartDate:         r.WeekStartDate.UTC(),
		WeekEndDate:           r.WeekEndDate.UTC(),
		ProjectDueDate:        r.ProjectDueDate.UTC(),
		CurrentProjectEndDate: r.CurrentProjectEndDate.UTC(),
		DelayCount:            r.DelayCount,
		GeneratedByID:         r.GeneratedByID,
		GeneratedAt:           r.GeneratedAt.UTC(),
	}
	if err := r.Reschedules.Unmarshal(&rpt.Reschedules); err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "decoding reschedules")
	}
	if err := r.DelayDetails.Unmarshal(&rpt.DelayDetails); err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "decoding delay details")
	}
	return rpt, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CreateWeeklyReport(ctx context.Context, rpt report.WeeklyReport) (report.WeeklyReport, error) {
	if rpt.ID == "" {
		rpt.ID = uuid.NewString()
	}
	row, err := toReportRow(rpt)
	if err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "encoding weekly report")
	}
	const q = `
	INSERT INTO weekly_reports (id, project_id, week_start_date, week_end_date, project_due_date, current_project_end_date,
		reschedules, delay_count, delay_details, generated_by_id, generated_at)
	VALUES (:id, :project_id, :week_start_date, :week_end_date, :project_due_date, :current_project_end_date,
		:reschedules, :delay_count, :delay_details, :generated_by_id, :generated_at)`

	if _, err = sqlx.NamedExecContext(ctx, repo.db.ext(ctx), q, row); err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "inserting weekly report")
	}
	return rpt, nil
}

func (repo *reportRepository) GetWeeklyReport(ctx context.Context, id string) (report.WeeklyReport, error) {
	var row reportRow
	err := sqlx.GetContext(ctx, repo.db.ext(ctx), &row, "SELECT "+reportColumns+" FROM weekly_reports WHERE id = $1", id)
	if err != nil {
		return report.WeeklyReport{}, notFound(err, report.ErrNotFound)
	}
	return row.report()
}

func (repo *reportRepository) QueryWeeklyReports(ctx context.Context, projectID string) ([]report.WeeklyReport, error) {
	var rows []reportRow
	q := "SELECT " + reportColumns + " FROM weekly_reports WHERE ($1 = '' OR project_id = $1) ORDER BY generated_at DESC, id DESC"
	if err := sqlx.SelectContext(ctx, repo.db.ext(ctx), &rows, q, projectID); err != nil {
		return nil, errors.Wrap(err, "selecting weekly reports")
	}
	rpts := make([]report.WeeklyReport, 0, len(rows))
	for _, r := range rows {
		rpt, err := r.report()
		if err != nil {
			return nil, err
		}
		rpts = append(rpts, rpt)
	}
	return rpts, nil
}
