package inmemdb

import (
	"context"
	"strings"

	"github.com/projectpulse/pulse/core/user"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	defer repo.db.lock(ctx)()

	for _, r := range repo.db.user {
		if strings.EqualFold(r.val.Email, usr.Email) {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = newID(usr.ID)
	repo.db.user[usr.ID] = record[user.User]{seq: repo.db.nextSeq(), val: usr}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	defer repo.db.rlock(ctx)()

	if r, ok := repo.db.user[id]; ok {
		return r.val, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	defer repo.db.rlock(ctx)()

	for _, r := range repo.db.user {
		if strings.EqualFold(r.val.Email, email) {
			return r.val, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	defer repo.db.rlock(ctx)()

	keep := func(usr user.User) bool {
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			return false
		}
		return len(filter.Roles) == 0 || usr.HasAnyRole(filter.Roles...)
	}
	byName := func(a, b user.User) bool { return a.Name < b.Name }
	return repo.db.user.rows(keep, byName, false), nil
}
