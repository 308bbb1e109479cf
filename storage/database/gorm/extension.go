package gormdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core/extension"
)

func toExtensionModel(req extension.Request) extensionModel {
	return extensionModel{
		ID:              req.ID,
		TaskID:          req.TaskID,
		ProjectID:       req.ProjectID,
		RequesterID:     req.RequesterID,
		AdditionalDays:  req.AdditionalDays,
		Reason:          req.Reason,
		Status:          string(req.Status),
		ResponseMessage: req.ResponseMessage,
		ResponderID:     req.ResponderID,
		RespondedAt:     req.RespondedAt,
		CreatedAt:       req.CreatedAt.UTC(),
	}
}

func (m extensionModel) request() extension.Request {
	req := extension.Request{
		ID:              m.ID,
		TaskID:          m.TaskID,
		ProjectID:       m.ProjectID,
		RequesterID:     m.RequesterID,
		AdditionalDays:  m.AdditionalDays,
		Reason:          m.Reason,
		Status:          extension.Status(m.Status),
		ResponseMessage: m.ResponseMessage,
		ResponderID:     m.ResponderID,
		CreatedAt:       m.CreatedAt.UTC(),
	}
	if m.RespondedAt != nil {
		at := m.RespondedAt.UTC()
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
	m := toExtensionModel(req)
	if err := repo.db.conn(ctx).Create(&m).Error; err != nil {
		return extension.Request{}, errors.Wrap(err, "inserting extension request")
	}
	return m.request(), nil
}

func (repo *extensionRepository) GetExtensionRequest(ctx context.Context, id string) (extension.Request, error) {
	var m extensionModel
	if err := repo.db.conn(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return extension.Request{}, notFound(err, extension.ErrNotFound)
	}
	return m.request(), nil
}

func (repo *extensionRepository) QueryExtensionRequests(ctx context.Context, filter extension.QueryFilter) ([]extension.Request, error) {
	q := repo.db.conn(ctx)
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.RequesterID != "" {
		q = q.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}

	var ms []extensionModel
	if err := q.Order("created_at DESC, rowid DESC").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "selecting extension requests")
	}
	reqs := make([]extension.Request, 0, len(ms))
	for _, m := range ms {
		reqs = append(reqs, m.request())
	}
	return reqs, nil
}

// ResolveExtensionRequest only updates a row that is still pending.
func (repo *extensionRepository) ResolveExtensionRequest(ctx context.Context, req extension.Request) (extension.Request, error) {
	res := repo.db.conn(ctx).
		Model(&extensionModel{}).
		Where("id = ? AND status = ?", req.ID, string(extension.StatusPending)).
		Updates(map[string]interface{}{
			"status":           string(req.Status),
			"response_message": req.ResponseMessage,
			"responder_id":     req.ResponderID,
			"responded_at":     req.RespondedAt,
		})
	if res.Error != nil {
		return extension.Request{}, errors.Wrap(res.Error, "resolving extension request")
	}

	stored, err := repo.GetExtensionRequest(ctx, req.ID)
	if err != nil {
		return extension.Request{}, err
	}
	if res.RowsAffected == 0 {
		return extension.Request{}, extension.ErrNotPending
	}
	return stored, nil
}
