package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

// Notifier is the out-of-band alert channel.
type Notifier interface {
	Notify(ctx context.Context, recipient, message string) error
}

// EntryValidator checks the plate seen at a gated entry against the expected or
// reserved plate. It never touches the tracker's registry.
type EntryValidator struct {
	reservations repository.ReservationRepository
	checks       repository.EntryCheckRepository
	notifier     Notifier
	recipient    string
	events       EventPublisher
	clock        clock.Clock
	logger       *zap.SugaredLogger
}

type EntryValidatorDeps struct {
	Reservations repository.ReservationRepository
	Checks       repository.EntryCheckRepository
	Notifier     Notifier
	Recipient    string
	Events       EventPublisher
	Clock        clock.Clock
	Logger       *zap.SugaredLogger
}

func NewEntryValidator(deps EntryValidatorDeps) *EntryValidator {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	return &EntryValidator{
		reservations: deps.Reservations,
		checks:       deps.Checks,
		notifier:     deps.Notifier,
		recipient:    deps.Recipient,
		events:       deps.Events,
		clock:        deps.Clock,
		logger:       deps.Logger.Named("entry"),
	}
}

// MismatchMessage is the alert body sent when the detected plate differs from the
// expected one. The lot line is left out when the location is unknown.
func MismatchMessage(detected, expected, lot, slot string) string {
	msg := fmt.Sprintf("Alert! License plate mismatch detected.\nActual: %s\nReserved: %s.\n", detected, expected)
	if lot != "" || slot != "" {
		msg += fmt.Sprintf("Lot: %s, Slot: %s\n", lot, slot)
	}
	return msg + "Please verify immediately!"
}

// ValidateEntry compares a detected plate with the expected one. A mismatch sends
// exactly one alert carrying both values. An alert failure is returned together
// with the result.
func (v *EntryValidator) ValidateEntry(ctx context.Context, detected, expected string) (domain.EntryResult, error) {
	return v.HandleEvent(ctx, domain.EntryEvent{
		EventID:       uuid.NewString(),
		Plate:         detected,
		ExpectedPlate: expected,
		At:            v.clock.Now(),
		Source:        "direct",
	})
}

// ValidateReservedEntry looks up the active reservation for lot/slot and validates
// against its plate. Without a reservation the result is EntryNoReservation and
// nobody is alerted.
func (v *EntryValidator) ValidateReservedEntry(ctx context.Context, lot, slot, detected string) (domain.EntryResult, error) {
	return v.HandleEvent(ctx, domain.EntryEvent{
		EventID: uuid.NewString(),
		Plate:   detected,
		Lot:     lot,
		Slot:    slot,
		At:      v.clock.Now(),
		Source:  "direct",
	})
}

// HandleEvent runs one entry check. An explicit ExpectedPlate wins over the
// reservation lookup.
func (v *EntryValidator) HandleEvent(ctx context.Context, ev domain.EntryEvent) (domain.EntryResult, error) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = v.clock.Now()
	}
	result := domain.EntryResult{EventID: ev.EventID, Detected: ev.Plate}

	expected := ev.ExpectedPlate
	if expected == "" {
		if v.reservations == nil {
			return result, errors.New("EntryValidator.HandleEvent: no expected plate and no reservation repository")
		}
		res, err := v.reservations.FindActive(ctx, ev.Lot, ev.Slot, ev.At)
		switch {
		case errors.Is(err, repository.ErrNoReservation):
			result.Status = domain.EntryNoReservation
			v.logger.Infof("EntryValidator: no active reservation for %s/%s, plate %s", ev.Lot, ev.Slot, ev.Plate)
			v.record(ctx, ev, result, nil)
			return result, nil
		case err != nil:
			return result, fmt.Errorf("EntryValidator.HandleEvent: %w", err)
		}
		expected = res.Plate
	}
	result.Expected = expected

	if ev.Plate == expected {
		result.Status = domain.EntryMatched
		v.logger.Infof("EntryValidator: plate %s matches reservation", ev.Plate)
		v.record(ctx, ev, result, nil)
		return result, nil
	}

	result.Status = domain.EntryMismatch
	message := MismatchMessage(ev.Plate, expected, ev.Lot, ev.Slot)
	v.logger.Warnf("EntryValidator: plate mismatch, detected %s expected %s", ev.Plate, expected)

	var alertErr error
	if v.notifier != nil {
		alertErr = v.notifier.Notify(ctx, v.recipient, message)
	} else {
		alertErr = errors.New("no notifier configured")
	}
	if alertErr == nil {
		result.Alerted = true
	} else {
		v.logger.Errorf("EntryValidator: alert for %s not delivered: %v", ev.Plate, alertErr)
		alertErr = fmt.Errorf("EntryValidator.HandleEvent: alert: %w", alertErr)
	}

	if v.events != nil {
		v.events.PublishTrackEvent(domain.TrackEvent{
			EventID:       ev.EventID,
			Type:          domain.PlateMismatch,
			Plate:         ev.Plate,
			ExpectedPlate: expected,
			Lot:           ev.Lot,
			Slot:          ev.Slot,
			Timestamp:     ev.At,
			Message:       message,
		})
	}
	v.record(ctx, ev, result, alertErr)
	return result, alertErr
}

// record persists the bookkeeping row. Failures are logged only.
func (v *EntryValidator) record(ctx context.Context, ev domain.EntryEvent, result domain.EntryResult, alertErr error) {
	if v.checks == nil {
		return
	}
	check := &domain.EntryCheck{
		EventID:       ev.EventID,
		DetectedPlate: ev.Plate,
		ExpectedPlate: null.NewString(result.Expected, result.Expected != ""),
		Lot:           null.NewString(ev.Lot, ev.Lot != ""),
		Slot:          null.NewString(ev.Slot, ev.Slot != ""),
		Status:        result.Status,
		Alerted:       result.Alerted,
		CheckedAt:     ev.At,
	}
	if alertErr != nil {
		check.AlertError = null.StringFrom(alertErr.Error())
	}
	if err := v.checks.Create(ctx, check); err != nil {
		v.logger.Errorf("EntryValidator: recording check %s: %v", ev.EventID, err)
	}
}

// EntryHandler runs entry checks for the tracker off the frame goroutine.
type EntryHandler struct {
	validator *EntryValidator
	timeout   time.Duration
	logger    *zap.SugaredLogger

	queue  chan domain.EntryEvent
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewEntryHandler(validator *EntryValidator, queueSize int, timeout time.Duration, logger *zap.SugaredLogger) *EntryHandler {
	if queueSize <= 0 {
		queueSize = 16
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	h := &EntryHandler{
		validator: validator,
		timeout:   timeout,
		logger:    logger.Named("entry_handler"),
		queue:     make(chan domain.EntryEvent, queueSize),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

// HandleEntry queues the event; it is dropped with a log line when the queue is full.
func (h *EntryHandler) HandleEntry(ev domain.EntryEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.queue <- ev:
	default:
		h.logger.Warnf("EntryHandler: queue full, skipping entry check for %s", ev.Plate)
	}
}

func (h *EntryHandler) run() {
	defer h.wg.Done()
	for ev := range h.queue {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		if _, err := h.validator.HandleEvent(ctx, ev); err != nil {
			h.logger.Errorf("EntryHandler: %v", err)
		}
		cancel()
	}
}

func (h *EntryHandler) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()

	h.wg.Wait()
}
