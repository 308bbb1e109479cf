package inmemdb

import (
	"context"

	"github.com/projectpulse/pulse/core/extension"
)

type extensionRepository struct {
	db *DB
}

func NewExtensionRepository(db *DB) extension.Repository {
	return &extensionRepository{db: db}
}

func (repo *extensionRepository) CreateExtensionRequest(ctx context.Context, req extension.Request) (extension.Request, error) {
	defer repo.db.lock(ctx)()

	req.ID = newID(req.ID)
	repo.db.extension[req.ID] = record[extension.Request]{seq: repo.db.nextSeq(), val: req}
	return req, nil
}

func (repo *extensionRepository) GetExtensionRequest(ctx context.Context, id string) (extension.Request, error) {
	defer repo.db.rlock(ctx)()

	if r, ok := repo.db.extension[id]; ok {
		return r.val, nil
	}
	return extension.Request{}, extension.ErrNotFound
}

func (repo *extensionRepository) QueryExtensionRequests(ctx context.Context, filter extension.QueryFilter) ([]extension.Request, error) {
	defer repo.db.rlock(ctx)()

	byCreation := func(a, b extension.Request) bool { return a.CreatedAt.Before(b.CreatedAt) }
	return repo.db.extension.rows(filter.Match, byCreation, true /* newest first */), nil
}

func (repo *extensionRepository) ResolveExtensionRequest(ctx context.Context, req extension.Request) (extension.Request, error) {
	defer repo.db.lock(ctx)()

	r, ok := repo.db.extension[req.ID]
	if !ok {
		return extension.Request{}, extension.ErrNotFound
	}
	if !r.val.IsPending() {
		return extension.Request{}, extension.ErrNotPending
	}
	r.val.Status = req.Status
	r.val.ResponseMessage = req.ResponseMessage
	r.val.ResponderID = req.ResponderID
	r.val.RespondedAt = req.RespondedAt
	repo.db.extension[req.ID] = r
	return r.val, nil
}
