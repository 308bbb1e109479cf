package sqlxdb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/projectpulse/pulse/core/extension"
)

const extensionColumns = `id, task_id, project_id, requester_id, additional_days, reason, status,
	response_message, responder_id, responded_at, created_at`

type extensionRow struct {
	ID              string      `db:"id"`
	TaskID          string      `db:"task_id"`
	ProjectID       string      `db:"project_id"`
	RequesterID     string      `db:"requester_id"`
	AdditionalDays  int         `db:"additional_days"`
	Reason          string      `db:"reason"`
	Status          string      `db:"status"`
	ResponseMessage null.String `db:"response_message"`
	ResponderID     null.String `db:"responder_id"`
	RespondedAt     null.Time   `db:"responded_at"`
	CreatedAt       time.Time   `db:"created_at"`
}

func toExtensionRow(req extension.Request) extensionRow {
	return extensionRow{
		ID:              req.ID,
		TaskID:          req.TaskID,
		ProjectID:       req.ProjectID,
		RequesterID:     req.RequesterID,
		AdditionalDays:  req.AdditionalDays,
		Reason:          req.Reason,
		Status:          string(req.Status),
		ResponseMessage: null.NewString(req.ResponseMessage, req.ResponseMessage != ""),
		ResponderID:     null.NewString(req.ResponderID, req.ResponderID != ""),
		RespondedAt:     null.TimeFromPtr(req.RespondedAt),
		CreatedAt:       req.CreatedAt.UTC(),
	}
}

func (r extensionRow) request() extension.Request {
	req := extension.Request{
		ID:              r.ID,
		TaskID:          r.TaskID,
		ProjectID:       r.ProjectID,
		RequesterID:     r.RequesterID,
		AdditionalDays:  r.AdditionalDays,
		Reason:          r.Reason,
		Status:          extension.Status(r.Status),
		ResponseMessage: r.ResponseMessage.String,
		ResponderID:     r.ResponderID.String,
		CreatedAt:       r.CreatedAt.UTC(),
	}
	if r.RespondedAt.Valid {
		at := r.RespondedAt.Time.UTC()
		req.RespondedAt = &at
	}
	return req
}

type extensionRepository struct {
	db *DB
}

var _ extension.Repository = (*extensionRepository)(nil) // interface compliance check

func NewExtensionRepository(db *DB) extension.Repository {
	return &extensionRepository{db: db}
}

func (repo *extensionRepository) CreateExtensionRequest(ctx context.Context, req extension.Request) (extension.Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	const q = `
	INSERT INTO extension_requests (id, task_id, project_id, requester_id, additional_days, reason, status,
		response_message, responder_id, responded_at, created_at)
	VALUES (:id, :task_id, :project_id, :requester_id, :additional_days, :reason, :status,
		:response_message, :responder_id, :responded_at, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, repo.db.ext(ctx), q, toExtensionRow(req)); err != nil {
		return extension.Request{}, errors.Wrap(err, "inserting extension request")
	}
	return req, nil
}

func (repo *extensionRepository) GetExtensionRequest(ctx context.Context, id string) (extension.Request, error) {
	var row extensionRow
	err := sqlx.GetContext(ctx, repo.db.ext(ctx), &row, "SELECT "+extensionColumns+" FROM extension_requests WHERE id = $1", id)
	if err != nil {
		return extension.Request{}, notFound(err, extension.ErrNotFound)
	}
	return row.request(), nil
}

func (repo *extensionRepository) QueryExtensionRequests(ctx context.Context, filter extension.QueryFilter) ([]extension.Request, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = ?")
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		where = append(where, "requester_id = ?")
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		where = append(where, "project_id = ?")
	}

	q := "SELECT " + extensionColumns + " FROM extension_requests"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	ext := repo.db.ext(ctx)
	var rows []extensionRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting extension requests")
	}
	reqs := make([]extension.Request, 0, len(rows))
	for _, r := range rows {
		reqs = append(reqs, r.request())
	}
	return reqs, nil
}

// ResolveExtensionRequest only updates a row that is still pending, so concurrent responders
// serialize on the row lock and the loser sees no row.
func (repo *extensionRepository) ResolveExtensionRequest(ctx context.Context, req extension.Request) (extension.Request, error) {
	const q = `
	UPDATE extension_requests
	SET status = :status, response_message = :response_message, responder_id = :responder_id, responded_at = :responded_at
	WHERE id = :id AND status = 'pending'
	RETURNING ` + extensionColumns

	ext := repo.db.ext(ctx)
	query, args, err := sqlx.Named(q, toExtensionRow(req))
	if err != nil {
		return extension.Request{}, errors.Wrap(err, "binding extension request")
	}

	var row extensionRow
	err = sqlx.GetContext(ctx, ext, &row, ext.Rebind(query), args...)
	switch {
	case err == nil:
		return row.request(), nil
	case errors.Cause(err) != sql.ErrNoRows:
		return extension.Request{}, errors.Wrap(err, "resolving extension request")
	}

	// nothing updated: unknown or already resolved
	if _, err = repo.GetExtensionRequest(ctx, req.ID); err != nil {
		return extension.Request{}, err
	}
	return extension.Request{}, extension.ErrNotPending
}
