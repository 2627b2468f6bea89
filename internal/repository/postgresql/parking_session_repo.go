package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

type pgSessionRepository struct {
	db *sql.DB
}

func NewPgSessionRepository(db *sql.DB) repository.SessionRepository {
	return &pgSessionRepository{db: db}
}

const sessionColumns = `id, session_uid, license_plate, lot_name, slot_name, start_time, end_time, duration_ms, paid, created_at`

func (r *pgSessionRepository) Store(ctx context.Context, session *domain.Session) error {
	query := `INSERT INTO parking_sessions
	           (session_uid, license_plate, lot_name, slot_name, start_time, end_time, duration_ms, paid, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
	           ON CONFLICT (session_uid) DO NOTHING
	           RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		session.SessionUID, session.Plate, session.Lot, session.Slot,
		session.StartTime.UTC(), session.EndTime.UTC(), session.Duration.Milliseconds(), session.Paid,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already stored by an earlier attempt.
			return nil
		}
		return fmt.Errorf("SessionRepository.Store: %w", err)
	}
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	return nil
}

func (r *pgSessionRepository) FindByUID(ctx context.Context, uid uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE session_uid = $1`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SessionRepository.FindByUID: %w", err)
	}
	return session, nil
}

func (r *pgSessionRepository) Find(ctx context.Context, filter domain.SessionFilterDTO) ([]domain.Session, error) {
	var conditions []string
	var args []interface{}

	if filter.Plate != nil && *filter.Plate != "" {
		args = append(args, *filter.Plate)
		conditions = append(conditions, fmt.Sprintf("license_plate = $%d", len(args)))
	}
	if filter.Lot != nil && *filter.Lot != "" {
		args = append(args, *filter.Lot)
		conditions = append(conditions, fmt.Sprintf("lot_name = $%d", len(args)))
	}

	query := `SELECT ` + sessionColumns + ` FROM parking_sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, repository.ClampLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY end_time DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SessionRepository.Find: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("SessionRepository.Find: scan: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SessionRepository.Find: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	s := &domain.Session{}
	var durationMS int64
	err := row.Scan(&s.ID, &s.SessionUID, &s.Plate, &s.Lot, &s.Slot,
		&s.StartTime, &s.EndTime, &durationMS, &s.Paid, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Duration = time.Duration(durationMS) * time.Millisecond
	s.StartTime = s.StartTime.In(time.UTC)
	s.EndTime = s.EndTime.In(time.UTC)
	s.CreatedAt = s.CreatedAt.In(time.UTC)
	return s, nil
}
