package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

type pgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

func (r *pgReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `INSERT INTO reservations (license_plate, lot_name, slot_name, reservation_expiry)
	           VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, res.Plate, res.Lot, res.Slot, res.Expiry.UTC()).Scan(&res.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reservation for %s/%s at %s", repository.ErrDuplicateEntry, res.Lot, res.Slot, res.Expiry)
		}
		return fmt.Errorf("ReservationRepository.Create: %w", err)
	}
	return nil
}

// FindActive picks the soonest-expiring reservation still valid at now.
func (r *pgReservationRepository) FindActive(ctx context.Context, lot, slot string, now time.Time) (*domain.Reservation, error) {
	query := `SELECT id, license_plate, lot_name, slot_name, reservation_expiry
	           FROM reservations
	           WHERE lot_name = $1 AND slot_name = $2 AND reservation_expiry > $3
	           ORDER BY reservation_expiry ASC LIMIT 1`

	res := &domain.Reservation{}
	err := r.db.QueryRowContext(ctx, query, lot, slot, now.UTC()).Scan(
		&res.ID, &res.Plate, &res.Lot, &res.Slot, &res.Expiry,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoReservation
		}
		return nil, fmt.Errorf("ReservationRepository.FindActive: %w", err)
	}
	res.Expiry = res.Expiry.In(time.UTC)
	return res, nil
}
