package gormdb

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"github.com/projectpulse/pulse/core/report"
)

func toReportModel(rpt report.WeeklyReport) (reportModel, error) {
	reschedules, err := json.Marshal(rpt.Reschedules)
	if err != nil {
		return reportModel{}, err
	}
	details, err := json.Marshal(rpt.DelayDetails)
	if err != nil {
		return reportModel{}, err
	}
	return reportModel{
		ID:                    rpt.ID,
		ProjectID:             rpt.ProjectID,
		WeekStartDate:         rpt.WeekStartDate.UTC(),
		WeekEndDate:           rpt.WeekEndDate.UTC(),
		ProjectDueDate:        rpt.ProjectDueDate.UTC(),
		CurrentProjectEndDate: rpt.CurrentProjectEndDate.UTC(),
		Reschedules:           datatypes.JSON(reschedules),
		DelayCount:            rpt.DelayCount,
		DelayDetails:          datatypes.JSON(details),
		GeneratedByID:         rpt.GeneratedByID,
		GeneratedAt:           rpt.GeneratedAt.UTC(),
	}, nil
}

func (m reportModel) report() (report.WeeklyReport, error) {
	rpt := report.WeeklyReport{
		ID:                    m.ID,
		ProjectID:             m.ProjectID,
		WeekStartDate:         m.WeekStartDate.UTC(),
		WeekEndDate:           m.WeekEndDate.UTC(),
		ProjectDueDate:        m.ProjectDueDate.UTC(),
		CurrentProjectEndDate: m.CurrentProjectEndDate.UTC(),
		DelayCount:            m.DelayCount,
		GeneratedByID:         m.GeneratedByID,
		GeneratedAt:           m.GeneratedAt.UTC(),
	}
	if err := json.Unmarshal(m.Reschedules, &rpt.Reschedules); err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "decoding reschedules")
	}
	if err := json.Unmarshal(m.DelayDetails, &rpt.DelayDetails); err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "decoding delay details")
	}
	return rpt, nil
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
	m, err := toReportModel(rpt)
	if err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "encoding weekly report")
	}
	if err = repo.db.conn(ctx).Create(&m).Error; err != nil {
		return report.WeeklyReport{}, errors.Wrap(err, "inserting weekly report")
	}
	return m.report()
}

func (repo *reportRepository) GetWeeklyReport(ctx context.Context, id string) (report.WeeklyReport, error) {
	var m reportModel
	if err := repo.db.conn(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return report.WeeklyReport{}, notFound(err, report.ErrNotFound)
	}
	return m.report()
}

func (repo *reportRepository) QueryWeeklyReports(ctx context.Context, projectID string) ([]report.WeeklyReport, error) {
	q := repo.db.conn(ctx)
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}

	var ms []reportModel
	if err := q.Order("generated_at DESC, rowid DESC").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "selecting weekly reports")
	}
	rpts := make([]report.WeeklyReport, 0, len(ms))
	for _, m := range ms {
		rpt, err := m.report()
		if err != nil {
			return nil, err
		}
		rpts = append(rpts, rpt)
	}
	return rpts, nil
}
