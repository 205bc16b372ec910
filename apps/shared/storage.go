package shared

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/storage/database"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

const (
	EnginePostgres = "postgres"
	EngineInMemory = "inmem"
)

// Storage holds the account repositories of the configured database engine.
type Storage struct {
	Students account.StudentRepository
	Teachers account.TeacherRepository
	DB       *sqlx.DB // nil for the inmem engine
}

// OpenStorage connects to the configured engine. With migrate set, the postgres
// database and its app user are created if needed and pending migrations applied.
func OpenStorage(ctx context.Context, conf *core.Config, migrate bool) (*Storage, error) {
	switch conf.Database.Engine {
	case EngineInMemory:
		db := inmemdb.Open()
		return &Storage{
			Students: inmemdb.NewStudentRepository(db),
			Teachers: inmemdb.NewTeacherRepository(db),
		}, nil

	case EnginePostgres:
		if migrate {
			if err := database.CreateIfNotExist(ctx, conf); err != nil {
				return nil, errors.Wrap(err, "creating database")
			}
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if migrate {
			if err = database.Migrate(ctx, db, "up"); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &Storage{
			Students: sqlxrepos.NewStudentRepository(db),
			Teachers: sqlxrepos.NewTeacherRepository(db),
			DB:       db,
		}, nil
	}
	return nil, fmt.Errorf("unknown database engine %q", conf.Database.Engine)
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
