package service

import (
	"context"
	"sync"
	"time"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

type memSessionStore struct {
	mu       sync.Mutex
	sessions []domain.Session
	err      error
	block    chan struct{}
}

func (s *memSessionStore) Store(ctx context.Context, session *domain.Session) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sessions = append(s.sessions, *session)
	return nil
}

func (s *memSessionStore) all() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Session(nil), s.sessions...)
}

type sentAlert struct {
	recipient, message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, recipient, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentAlert{recipient, message})
	return n.err
}

func (n *recordingNotifier) alerts() []sentAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentAlert(nil), n.sent...)
}

type memReservations struct {
	items []domain.Reservation
	err   error
}

func (m *memReservations) Create(_ context.Context, r *domain.Reservation) error {
	r.ID = len(m.items) + 1
	m.items = append(m.items, *r)
	return nil
}

func (m *memReservations) FindActive(_ context.Context, lot, slot string, now time.Time) (*domain.Reservation, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.items {
		if r.Lot == lot && r.Slot == slot && r.Expiry.After(now) {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNoReservation
}

type memEntryChecks struct {
	mu      sync.Mutex
	checks  []domain.EntryCheck
	cutoffs []time.Time
	deleted int64
}

func (m *memEntryChecks) Create(_ context.Context, c *domain.EntryCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = len(m.checks) + 1
	m.checks = append(m.checks, *c)
	return nil
}

func (m *memEntryChecks) FindRecent(_ context.Context, limit int) ([]domain.EntryCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EntryCheck(nil), m.checks...), nil
}

func (m *memEntryChecks) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.deleted, nil
}

func (m *memEntryChecks) all() []domain.EntryCheck {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EntryCheck(nil), m.checks...)
}

func (m *memEntryChecks) sweeps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.TrackEvent
}

func (p *recordingPublisher) PublishTrackEvent(ev domain.TrackEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) all() []domain.TrackEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.TrackEvent(nil), p.events...)
}
