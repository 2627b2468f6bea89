package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("record already exists")
	ErrNoReservation  = errors.New("no active reservation for the lot and slot")
)

// SessionRepository is the durable sink for completed sessions. Store is
// idempotent on SessionUID: storing the same session twice keeps the first row.
type SessionRepository interface {
	Store(ctx context.Context, session *domain.Session) error
	FindByUID(ctx context.Context, uid uuid.UUID) (*domain.Session, error)
	Find(ctx context.Context, filter domain.SessionFilterDTO) ([]domain.Session, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	// FindActive returns the reservation for lot/slot whose expiry is after now,
	// or ErrNoReservation.
	FindActive(ctx context.Context, lot, slot string, now time.Time) (*domain.Reservation, error)
}

type EntryCheckRepository interface {
	Create(ctx context.Context, check *domain.EntryCheck) error
	FindRecent(ctx context.Context, limit int) ([]domain.EntryCheck, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Sessions     SessionRepository
	Reservations ReservationRepository
	EntryChecks  EntryCheckRepository
	Close        func() error
}

const (
	DefaultSessionLimit = 100
	MaxSessionLimit     = 1000
)

// ClampLimit applies the default and maximum page size for list queries.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSessionLimit
	}
	return min(limit, MaxSessionLimit)
}
