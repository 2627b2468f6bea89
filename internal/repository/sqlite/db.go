// Package sqlite is the embedded store used for single-host deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pruthvir7/ParkingManagement/internal/repository"
	"github.com/pruthvir7/ParkingManagement/internal/repository/migrations"
)

var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
}

// NewDB opens path (":memory:" for a throwaway database). SQLite allows one writer,
// so the pool is limited to a single connection.
func NewDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite.NewDB: %s: %w", p, err)
		}
	}
	return db, nil
}

func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite.Migrate: %w", err)
	}
	version, err := migrations.Up(migrations.DialectSQLite, driver, logger)
	if err != nil {
		return err
	}
	if logger != nil {
		logger.Infof("SQLite schema at version %d", version)
	}
	return nil
}

// Open creates, migrates and returns the SQLite-backed repositories.
func Open(ctx context.Context, path string, logger *zap.SugaredLogger) (*repository.Store, error) {
	db, err := NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &repository.Store{
		Sessions:     NewSessionRepository(db),
		Reservations: NewReservationRepository(db),
		EntryChecks:  NewEntryCheckRepository(db),
		Close:        db.Close,
	}, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	var sErr *sqlite.Error
	if errors.As(err, &sErr) {
		return sErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
