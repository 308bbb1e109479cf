package gormdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core/reschedule"
)

func (m rescheduleModel) log() reschedule.Log {
	return reschedule.Log{
		ID:              m.ID,
		ProjectID:       m.ProjectID,
		OldDeadline:     m.OldDeadline.UTC(),
		NewDeadline:     m.NewDeadline.UTC(),
		Reason:          m.Reason,
		RescheduledByID: m.RescheduledByID,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

type rescheduleRepository struct {
	db *DB
}

var _ reschedule.Repository = (*rescheduleRepository)(nil) // interface compliance check

func NewRescheduleRepository(db *DB) reschedule.Repository {
	return &rescheduleRepository{db: db}
}

func (repo *rescheduleRepository) CreateRescheduleLog(ctx context.Context, lg reschedule.Log) (reschedule.Log, error) {
	if lg.ID == "" {
		lg.ID = uuid.NewString()
	}
	m := rescheduleModel{
		ID:              lg.ID,
		ProjectID:       lg.ProjectID,
		OldDeadline:     lg.OldDeadline.UTC(),
		NewDeadline:     lg.NewDeadline.UTC(),
		Reason:          lg.Reason,
		RescheduledByID: lg.RescheduledByID,
		CreatedAt:       lg.CreatedAt.UTC(),
	}
	if err := repo.db.conn(ctx).Create(&m).Error; err != nil {
		return reschedule.Log{}, errors.Wrap(err, "inserting reschedule log")
	}
	return m.log(), nil
}

func (repo *rescheduleRepository) QueryRescheduleLogs(ctx context.Context, projectID string) ([]reschedule.Log, error) {
	var ms []rescheduleModel
	if err := repo.db.conn(ctx).Where("project_id = ?", projectID).Order("created_at, rowid").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "selecting reschedule logs")
	}
	logs := make([]reschedule.Log, 0, len(ms))
	for _, m := range ms {
		logs = append(logs, m.log())
	}
	return logs, nil
}
