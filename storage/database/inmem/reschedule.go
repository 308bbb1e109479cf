package inmemdb

import (
	"context"

	"github.com/projectpulse/pulse/core/reschedule"
)

type rescheduleRepository struct {
	db *DB
}

func NewRescheduleRepository(db *DB) reschedule.Repository {
	return &rescheduleRepository{db: db}
}

func (repo *rescheduleRepository) CreateRescheduleLog(ctx context.Context, lg reschedule.Log) (reschedule.Log, error) {
	defer repo.db.lock(ctx)()

	lg.ID = newID(lg.ID)
	repo.db.reschedule[lg.ID] = record[reschedule.Log]{seq: repo.db.nextSeq(), val: lg}
	return lg, nil
}

func (repo *rescheduleRepository) QueryRescheduleLogs(ctx context.Context, projectID string) ([]reschedule.Log, error) {
	defer repo.db.rlock(ctx)()

	keep := func(lg reschedule.Log) bool { return lg.ProjectID == projectID }
	byCreation := func(a, b reschedule.Log) bool { return a.CreatedAt.Before(b.CreatedAt) }
	return repo.db.reschedule.rows(keep, byCreation, false), nil
}
