package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/fs"
)

const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
	EngineMemory   = "memory"

	migrationsDir = "migrations"
)

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   EnginePostgres,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open(EnginePostgres, u.String())
}

// Open opens the postgres application database and waits until it answers.
func Open(conf *core.Config) (*sql.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const (
	readyAttempts = 30
	readyBackoff  = 100 * time.Millisecond
)

// ping retries until the server answers, backing off a little longer after each failure.
func ping(db *sql.DB) error {
	var err error
	for attempt := 1; attempt <= readyAttempts; attempt++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * readyBackoff)
	}
	return errors.Wrapf(err, "database not ready after %d attempts", readyAttempts)
}

// provision describes an object created once when a lookup finds nothing.
type provision struct {
	name   string
	exists string // parameterized lookup, $1 is arg
	arg    string
	create string
}

func appRole(conf *core.Config) provision {
	return provision{
		name:   "app role",
		exists: "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)",
		arg:    conf.Database.User,
		create: fmt.Sprintf("CREATE ROLE %s LOGIN CREATEDB PASSWORD %s",
			pq.QuoteIdentifier(conf.Database.User), pq.QuoteLiteral(conf.Database.Password)),
	}
}

func appDatabase(conf *core.Config) provision {
	return provision{
		name:   "app database",
		exists: "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)",
		arg:    conf.Database.Name,
		create: "CREATE DATABASE " + pq.QuoteIdentifier(conf.Database.Name),
	}
}

func (p provision) ensure(db *sql.DB) error {
	var exists bool
	if err := db.QueryRow(p.exists, p.arg).Scan(&exists); err != nil {
		return errors.Wrapf(err, "looking up %s", p.name)
	}
	if exists {
		return nil
	}
	_, err := db.Exec(p.create)
	return errors.Wrapf(err, "creating %s", p.name)
}

// provisionAs connects to the maintenance database and ensures every step.
func provisionAs(admin bool, conf *core.Config, steps ...provision) error {
	db, err := open("postgres", admin, conf)
	if err != nil {
		return errors.Wrap(err, "opening maintenance database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return err
	}
	for _, step := range steps {
		if err = step.ensure(db); err != nil {
			return err
		}
	}
	return nil
}

// CreateIfNotExist creates the app role with the admin credentials, then the app database as the app role.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.User != "" && conf.Database.AdminUser != "" {
		if err := provisionAs(true, conf, appRole(conf)); err != nil {
			return err
		}
	}
	return provisionAs(false, conf, appDatabase(conf))
}

// Migrate applies every pending migration.
func Migrate(db *sql.DB) error {
	if err := goose.Up(db, appfs.FS, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// MigrateTo runs a goose command ("up", "up-to", "down", "down-to", "redo", "up-by-one", "status").
// version is used by the "-to" commands only.
func MigrateTo(db *sql.DB, command string, version int64) error {
	var err error
	switch command {
	case "up":
		err = goose.Up(db, appfs.FS, migrationsDir)
	case "up-to":
		err = goose.UpTo(db, appfs.FS, migrationsDir, version)
	case "up-by-one":
		err = goose.UpByOne(db, appfs.FS, migrationsDir)
	case "down":
		err = goose.Down(db, appfs.FS, migrationsDir)
	case "down-to":
		err = goose.DownTo(db, appfs.FS, migrationsDir, version)
	case "redo":
		err = goose.Redo(db, appfs.FS, migrationsDir)
	case "status":
		var current int64
		if current, err = goose.GetDBVersion(db); err == nil {
			fmt.Printf("goose: current version: %d\n", current)
		}
	default:
		return errors.Errorf("unknown migrate command %q", command)
	}
	return errors.Wrapf(err, "migrate %s", command)
}
