package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reservations (license_plate, lot_name, slot_name, expiry_ms) VALUES (?, ?, ?, ?)`,
		res.Plate, res.Lot, res.Slot, toMillis(res.Expiry))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reservation for %s/%s at %s", repository.ErrDuplicateEntry, res.Lot, res.Slot, res.Expiry)
		}
		return fmt.Errorf("ReservationRepository.Create: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("ReservationRepository.Create: %w", err)
	}
	res.ID = int(id)
	return nil
}

func (r *reservationRepository) FindActive(ctx context.Context, lot, slot string, now time.Time) (*domain.Reservation, error) {
	var (
		res      domain.Reservation
		expiryMS int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, license_plate, lot_name, slot_name, expiry_ms
		FROM reservations
		WHERE lot_name = ? AND slot_name = ? AND expiry_ms > ?
		ORDER BY expiry_ms ASC LIMIT 1`, lot, slot, toMillis(now),
	).Scan(&res.ID, &res.Plate, &res.Lot, &res.Slot, &expiryMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoReservation
		}
		return nil, fmt.Errorf("ReservationRepository.FindActive: %w", err)
	}
	res.Expiry = fromMillis(expiryMS)
	return &res, nil
}
