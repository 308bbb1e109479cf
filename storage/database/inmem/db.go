// Package inmemdb is a process-local Entity Store used by tests and throwaway runs.
package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/extension"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/report"
	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/core/user"
)

type (
	record[T any] struct {
		seq int64
		val T
	}

	table[T any] map[string]record[T]

	tables struct {
		user       table[user.User]
		project    table[project.Project]
		task       table[project.Task]
		extension  table[extension.Request]
		reschedule table[reschedule.Log]
		report     table[report.WeeklyReport]
	}

	// DB is guarded by one RWMutex. A transaction holds the write lock for its whole
	// duration and restores a snapshot of every table when it fails.
	DB struct {
		mu  sync.RWMutex
		seq int64
		tables
	}

	txKey struct{}
)

var _ core.Transactor = (*DB)(nil)

func Open() *DB {
	return &DB{
		tables: tables{
			user:       make(table[user.User]),
			project:    make(table[project.Project]),
			task:       make(table[project.Task]),
			extension:  make(table[extension.Request]),
			reschedule: make(table[reschedule.Log]),
			report:     make(table[report.WeeklyReport]),
		},
	}
}

func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.inTx(ctx) {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.tables.clone()
	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.tables = snapshot
		return err
	}
	return nil
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables = Open().tables
}

func (db *DB) inTx(ctx context.Context) bool {
	tx, _ := ctx.Value(txKey{}).(*DB)
	return tx == db
}

// rlock read-locks the DB unless ctx already runs inside one of its transactions.
func (db *DB) rlock(ctx context.Context) (unlock func()) {
	if db.inTx(ctx) {
		return func() {}
	}
	db.mu.RLock()
	return db.mu.RUnlock
}

func (db *DB) lock(ctx context.Context) (unlock func()) {
	if db.inTx(ctx) {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

// nextSeq must be called with the write lock held.
func (db *DB) nextSeq() int64 {
	db.seq++
	return db.seq
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func (t tables) clone() tables {
	return tables{
		user:       t.user.clone(),
		project:    t.project.clone(),
		task:       t.task.clone(),
		extension:  t.extension.clone(),
		reschedule: t.reschedule.clone(),
		report:     t.report.clone(),
	}
}

func (t table[T]) clone() table[T] {
	c := make(table[T], len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// rows returns the values matching keep, ordered by less with insertion order breaking ties.
// desc reverses the whole ordering.
func (t table[T]) rows(keep func(T) bool, less func(a, b T) bool, desc bool) []T {
	recs := make([]record[T], 0, len(t))
	for _, r := range t {
		if keep == nil || keep(r.val) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if less != nil {
			if less(recs[i].val, recs[j].val) {
				return true
			}
			if less(recs[j].val, recs[i].val) {
				return false
			}
		}
		return recs[i].seq < recs[j].seq
	})

	vals := make([]T, len(recs))
	for i, r := range recs {
		if desc {
			vals[len(recs)-1-i] = r.val
		} else {
			vals[i] = r.val
		}
	}
	return vals
}
