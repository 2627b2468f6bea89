// Package migrations embeds the schema for both supported stores and runs it with
// golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Up applies every pending migration for dialect against an already-wrapped
// database driver. The migrate instance is not closed because that would close
// the caller's *sql.DB.
func Up(dialect string, driver database.Driver, logger *zap.SugaredLogger) (uint, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return 0, fmt.Errorf("migrations.Up: unknown dialect %q", dialect)
	}

	src, err := iofs.New(files, dialect)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: opening embedded source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: %w", err)
	}
	if logger != nil {
		m.Log = &migrateLogger{logger: logger}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrations.Up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("migrations.Up: reading version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("migrations.Up: schema version %d is dirty", version)
	}
	return version, nil
}

type migrateLogger struct {
	logger *zap.SugaredLogger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debugf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
