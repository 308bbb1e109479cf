package inmemdb

import (
	"context"
	"slices"

	"github.com/projectpulse/pulse/core/report"
)

type reportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CreateWeeklyReport(ctx context.Context, rpt report.WeeklyReport) (report.WeeklyReport, error) {
	defer repo.db.lock(ctx)()

	rpt.ID = newID(rpt.ID)
	rpt = cloneReport(rpt)
	repo.db.report[rpt.ID] = record[report.WeeklyReport]{seq: repo.db.nextSeq(), val: rpt}
	return cloneReport(rpt), nil
}

func (repo *reportRepository) GetWeeklyReport(ctx context.Context, id string) (report.WeeklyReport, error) {
	defer repo.db.rlock(ctx)()

	if r, ok := repo.db.report[id]; ok {
		return cloneReport(r.val), nil
	}
	return report.WeeklyReport{}, report.ErrNotFound
}

func (repo *reportRepository) QueryWeeklyReports(ctx context.Context, projectID string) ([]report.WeeklyReport, error) {
	defer repo.db.rlock(ctx)()

	keep := func(rpt report.WeeklyReport) bool { return projectID == "" || rpt.ProjectID == projectID }
	byGeneration := func(a, b report.WeeklyReport) bool { return a.GeneratedAt.Before(b.GeneratedAt) }
	rpts := repo.db.report.rows(keep, byGeneration, true /* newest first */)
	for i := range rpts {
		rpts[i] = cloneReport(rpts[i])
	}
	return rpts, nil
}

// cloneReport keeps stored snapshots frozen.
func cloneReport(rpt report.WeeklyReport) report.WeeklyReport {
	rpt.Reschedules = slices.Clone(rpt.Reschedules)
	rpt.DelayDetails = slices.Clone(rpt.DelayDetails)
	return rpt
}
