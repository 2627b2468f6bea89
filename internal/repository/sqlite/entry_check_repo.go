package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

type entryCheckRepository struct {
	db *sql.DB
}

func NewEntryCheckRepository(db *sql.DB) repository.EntryCheckRepository {
	return &entryCheckRepository{db: db}
}

func (r *entryCheckRepository) Create(ctx context.Context, check *domain.EntryCheck) error {
	result, err := r.db.ExecContext(ctx, `INSERT INTO entry_checks
		(event_id, detected_plate, expected_plate, lot_name, slot_name, status, alerted, alert_error, checked_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		check.EventID, check.DetectedPlate, check.ExpectedPlate, check.Lot, check.Slot,
		string(check.Status), check.Alerted, check.AlertError, toMillis(check.CheckedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entry check %s", repository.ErrDuplicateEntry, check.EventID)
		}
		return fmt.Errorf("EntryCheckRepository.Create: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("EntryCheckRepository.Create: %w", err)
	}
	check.ID = int(id)
	return nil
}

func (r *entryCheckRepository) FindRecent(ctx context.Context, limit int) ([]domain.EntryCheck, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, event_id, detected_plate, expected_plate, lot_name, slot_name,
		status, alerted, alert_error, checked_ms
		FROM entry_checks ORDER BY checked_ms DESC, id DESC LIMIT ?`, repository.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("EntryCheckRepository.FindRecent: %w", err)
	}
	defer rows.Close()

	var checks []domain.EntryCheck
	for rows.Next() {
		var (
			c         domain.EntryCheck
			status    string
			checkedMS int64
		)
		if err := rows.Scan(&c.ID, &c.EventID, &c.DetectedPlate, &c.ExpectedPlate, &c.Lot, &c.Slot,
			&status, &c.Alerted, &c.AlertError, &checkedMS); err != nil {
			return nil, fmt.Errorf("EntryCheckRepository.FindRecent: scan: %w", err)
		}
		c.Status = domain.EntryStatus(status)
		c.CheckedAt = fromMillis(checkedMS)
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("EntryCheckRepository.FindRecent: %w", err)
	}
	return checks, nil
}

func (r *entryCheckRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entry_checks WHERE checked_ms < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("EntryCheckRepository.DeleteOlderThan: %w", err)
	}
	return result.RowsAffected()
}
