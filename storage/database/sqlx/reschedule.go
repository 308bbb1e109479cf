package sqlxdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core/reschedule"
)

type rescheduleRow struct {
	ID              string    `db:"id"`
	ProjectID       string    `db:"project_id"`
	OldDeadline     time.Time `db:"old_deadline"`
	NewDeadline     time.Time `db:"new_deadline"`
	Reason          string    `db:"reason"`
	RescheduledByID string    `db:"rescheduled_by_id"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r rescheduleRow) log() reschedule.Log {
	return reschedule.Log{
		ID:              r.ID,
		ProjectID:       r.ProjectID,
		OldDeadline:     r.OldDeadline.UTC(),
		NewDeadline:     r.NewDeadline.UTC(),
		Reason:          r.Reason,
		RescheduledByID: r.RescheduledByID,
		CreatedAt:       r.CreatedAt.UTC(),
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
	const q = `
	INSERT INTO deadline_reschedule_logs (id, project_id, old_deadline, new_deadline, reason, rescheduled_by_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := repo.db.ext(ctx).ExecContext(ctx, q,
		lg.ID, lg.ProjectID, lg.OldDeadline.UTC(), lg.NewDeadline.UTC(), lg.Reason, lg.RescheduledByID, lg.CreatedAt.UTC(),
	)
	if err != nil {
		return reschedule.Log{}, errors.Wrap(err, "inserting reschedule log")
	}
	return lg, nil
}

func (repo *rescheduleRepository) QueryRescheduleLogs(ctx context.Context, projectID string) ([]reschedule.Log, error) {
	const q = `
	SELECT id, project_id, old_deadline, new_deadline, reason, rescheduled_by_id, created_at
	FROM deadline_reschedule_logs WHERE project_id = $1 ORDER BY created_at, id`

	var rows []rescheduleRow
	if err := sqlx.SelectContext(ctx, repo.db.ext(ctx), &rows, q, projectID); err != nil {
		return nil, errors.Wrap(err, "selecting reschedule logs")
	}
	logs := make([]reschedule.Log, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, r.log())
	}
	return logs, nil
}
