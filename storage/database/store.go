package database

import (
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/extension"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/report"
	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/core/user"
	gormdb "github.com/projectpulse/pulse/storage/database/gorm"
	inmemdb "github.com/projectpulse/pulse/storage/database/inmem"
	sqlxdb "github.com/projectpulse/pulse/storage/database/sqlx"
)

// Store bundles the repositories of one Entity Store engine.
type Store struct {
	Engine      string
	Tx          core.Transactor
	Users       user.Repository
	Projects    project.Repository
	Extensions  extension.Repository
	Reschedules reschedule.Repository
	Reports     report.Repository

	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the engine selected by conf.Database.Engine.
// postgres is created and migrated first; sqlite migrates its own schema.
func OpenStore(conf *core.Config) (*Store, error) {
	switch conf.Database.Engine {
	case EngineMemory:
		db := inmemdb.Open()
		return &Store{
			Engine:      EngineMemory,
			Tx:          db,
			Users:       inmemdb.NewUserRepository(db),
			Projects:    inmemdb.NewProjectRepository(db),
			Extensions:  inmemdb.NewExtensionRepository(db),
			Reschedules: inmemdb.NewRescheduleRepository(db),
			Reports:     inmemdb.NewReportRepository(db),
		}, nil

	case EngineSQLite:
		db, err := gormdb.Open(conf.Database.Path, conf.Debug && !conf.TestMode)
		if err != nil {
			return nil, err
		}
		return &Store{
			Engine:      EngineSQLite,
			Tx:          db,
			Users:       gormdb.NewUserRepository(db),
			Projects:    gormdb.NewProjectRepository(db),
			Extensions:  gormdb.NewExtensionRepository(db),
			Reschedules: gormdb.NewRescheduleRepository(db),
			Reports:     gormdb.NewReportRepository(db),
			close:       db.Close,
		}, nil

	case EnginePostgres:
		if err := CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		sqlDB, err := Open(conf)
		if err != nil {
			return nil, err
		}
		if err = Migrate(sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		db := sqlxdb.New(sqlDB)
		return &Store{
			Engine:      EnginePostgres,
			Tx:          db,
			Users:       sqlxdb.NewUserRepository(db),
			Projects:    sqlxdb.NewProjectRepository(db),
			Extensions:  sqlxdb.NewExtensionRepository(db),
			Reschedules: sqlxdb.NewRescheduleRepository(db),
			Reports:     sqlxdb.NewReportRepository(db),
			close:       sqlDB.Close,
		}, nil
	}
	return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}
