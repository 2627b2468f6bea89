package sqlite

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

type sessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db, now: time.Now}
}

const sessionColumns = `id, session_uid, license_plate, lot_name, slot_name, start_ms, end_ms, duration_ms, paid, created_ms`

func (r *sessionRepository) Store(ctx context.Context, session *domain.Session) error {
	created := r.now().UTC()
	result, err := r.db.ExecContext(ctx, `INSERT INTO parking_sessions
		(session_uid, license_plate, lot_name, slot_name, start_ms, end_ms, duration_ms, paid, created_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_uid) DO NOTHING`,
		session.SessionUID.String(), session.Plate, session.Lot, session.Slot,
		toMillis(session.StartTime), toMillis(session.EndTime), session.Duration.Milliseconds(),
		session.Paid, toMillis(created),
	)
	if err != nil {
		return fmt.Errorf("SessionRepository.Store: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("SessionRepository.Store: %w", err)
	}
	if n == 0 {
		return nil
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("SessionRepository.Store: %w", err)
	}
	session.ID = int(id)
	session.CreatedAt = fromMillis(toMillis(created))
	return nil
}

func (r *sessionRepository) FindByUID(ctx context.Context, uid uuid.UUID) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM parking_sessions WHERE session_uid = ?`, uid.String())
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SessionRepository.FindByUID: %w", err)
	}
	return s, nil
}

func (r *sessionRepository) Find(ctx context.Context, filter domain.SessionFilterDTO) ([]domain.Session, error) {
	var conditions []string
	var args []interface{}
	if filter.Plate != nil && *filter.Plate != "" {
		conditions = append(conditions, "license_plate = ?")
		args = append(args, *filter.Plate)
	}
	if filter.Lot != nil && *filter.Lot != "" {
		conditions = append(conditions, "lot_name = ?")
		args = append(args, *filter.Lot)
	}

	query := `SELECT ` + sessionColumns + ` FROM parking_sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY end_ms DESC, id DESC LIMIT ?"
	args = append(args, repository.ClampLimit(filter.Limit))

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
	var (
		s                                     domain.Session
		uid                                   string
		startMS, endMS, durationMS, createdMS int64
	)
	if err := row.Scan(&s.ID, &uid, &s.Plate, &s.Lot, &s.Slot,
		&startMS, &endMS, &durationMS, &s.Paid, &createdMS); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(uid)
	if err != nil {
		return nil, fmt.Errorf("bad session_uid %q: %w", uid, err)
	}
	s.SessionUID = parsed
	s.StartTime = fromMillis(startMS)
	s.EndTime = fromMillis(endMS)
	s.Duration = time.Duration(durationMS) * time.Millisecond
	s.CreatedAt = fromMillis(createdMS)
	return &s, nil
}
