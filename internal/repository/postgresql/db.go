package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/repository"
	"github.com/pruthvir7/ParkingManagement/internal/repository/migrations"
)

func NewDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgresql.NewDB: opening connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgresql.NewDB: ping: %w", err)
	}
	return db, nil
}

func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgresql.Migrate: %w", err)
	}
	version, err := migrations.Up(migrations.DialectPostgres, driver, logger)
	if err != nil {
		return err
	}
	logger.Infof("Postgres schema at version %d", version)
	return nil
}

// Open connects, migrates and returns the Postgres-backed repositories.
func Open(ctx context.Context, dsn string, logger *zap.SugaredLogger) (*repository.Store, error) {
	db, err := NewDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &repository.Store{
		Sessions:     NewPgSessionRepository(db),
		Reservations: NewPgReservationRepository(db),
		EntryChecks:  NewPgEntryCheckRepository(db),
		Close:        db.Close,
	}, nil
}

// isUniqueViolation understands errors from both the pgx driver and lib/pq.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}
