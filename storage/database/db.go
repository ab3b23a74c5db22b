package database

import (
	"embed"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/infort/rh/core"
)

// Engines
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

func init() {
	sqlx.BindDriver(SQLite, sqlx.QUESTION)
}

// Open connects to the configured database and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case Postgres, SQLite:
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
	if conf.Database.URL == "" {
		return nil, errors.New("database.url (DATABASE_URL) must be set")
	}

	dsn := conf.Database.URL
	if conf.Database.Engine == SQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sqlx.Open(conf.Database.Engine, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Database.Engine == SQLite {
		// one writer at a time, and in-memory databases only live on their own connection
		db.SetMaxOpenConns(1)
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN turns on foreign keys for every connection the pool opens.
func sqliteDSN(url string) string {
	if strings.Contains(url, "_pragma=foreign_keys") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)"
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// SetupMigrations points goose at the embedded migrations of db's engine and returns their directory.
func SetupMigrations(db *sqlx.DB) (string, error) {
	dialect, dir := "postgres", "migrations/postgres"
	if db.DriverName() == SQLite {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return "", errors.Wrap(err, "setting migrations dialect")
	}
	return dir, nil
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	dir, err := SetupMigrations(db)
	if err != nil {
		return err
	}
	if err = goose.Up(db.DB, dir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// IsUniqueViolation reports whether err was raised by a unique constraint.
func IsUniqueViolation(err error) bool {
	switch e := errors.Cause(err).(type) {
	case *pq.Error:
		return e.Code == "23505"
	case *sqlite.Error:
		return e.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
