// Package gormdb is the embedded sqlite Entity Store.
package gormdb

import (
	"context"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/projectpulse/pulse/core"
)

// MemoryPath opens a throwaway database.
const MemoryPath = ":memory:"

type (
	DB struct {
		gorm *gorm.DB
	}

	txKey struct{}
)

var _ core.Transactor = (*DB)(nil)

// Open opens (creating it if needed) the sqlite database at path and migrates its schema.
func Open(path string, debug bool) (*DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}

	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// sqlite has a single writer; one connection also keeps ":memory:" a single database.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting connection pool")
	}
	sqlDB.SetMaxOpenConns(1)

	db := &DB{gorm: gdb}
	if err = db.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	err := db.gorm.AutoMigrate(
		&userModel{},
		&projectModel{},
		&taskModel{},
		&extensionModel{},
		&rescheduleModel{},
		&reportModel{},
	)
	return errors.Wrap(err, "migrating database")
}

func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RunInTx runs fn in a transaction carried by ctx. Nested calls join the outer transaction.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return db.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or a session bound to ctx.
func (db *DB) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.gorm.WithContext(ctx)
}

func notFound(err error, nf error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return err
}
