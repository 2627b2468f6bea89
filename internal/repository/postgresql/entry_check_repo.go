package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

type pgEntryCheckRepository struct {
	db *sql.DB
}

func NewPgEntryCheckRepository(db *sql.DB) repository.EntryCheckRepository {
	return &pgEntryCheckRepository{db: db}
}

func (r *pgEntryCheckRepository) Create(ctx context.Context, check *domain.EntryCheck) error {
	query := `INSERT INTO entry_checks
		(event_id, detected_plate, expected_plate, lot_name, slot_name, status, alerted, alert_error, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		check.EventID, check.DetectedPlate, check.ExpectedPlate, check.Lot, check.Slot,
		check.Status, check.Alerted, check.AlertError, check.CheckedAt.UTC(),
	).Scan(&check.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entry check %s", repository.ErrDuplicateEntry, check.EventID)
		}
		return fmt.Errorf("EntryCheckRepository.Create: %w", err)
	}
	return nil
}

func (r *pgEntryCheckRepository) FindRecent(ctx context.Context, limit int) ([]domain.EntryCheck, error) {
	query := `SELECT id, event_id, detected_plate, expected_plate, lot_name, slot_name,
		status, alerted, alert_error, checked_at
		FROM entry_checks ORDER BY checked_at DESC, id DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, repository.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("EntryCheckRepository.FindRecent: %w", err)
	}
	defer rows.Close()

	var checks []domain.EntryCheck
	for rows.Next() {
		var c domain.EntryCheck
		if err := rows.Scan(&c.ID, &c.EventID, &c.DetectedPlate, &c.ExpectedPlate, &c.Lot, &c.Slot,
			&c.Status, &c.Alerted, &c.AlertError, &c.CheckedAt); err != nil {
			return nil, fmt.Errorf("EntryCheckRepository.FindRecent: scan: %w", err)
		}
		c.CheckedAt = c.CheckedAt.In(time.UTC)
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("EntryCheckRepository.FindRecent: %w", err)
	}
	return checks, nil
}

func (r *pgEntryCheckRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entry_checks WHERE checked_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("EntryCheckRepository.DeleteOlderThan: %w", err)
	}
	return result.RowsAffected()
}
