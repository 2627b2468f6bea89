package tracker

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

// Reaper closes tracks that have gone unmatched for longer than the grace period.
type Reaper struct {
	cfg    Config
	events EventSink
	logger *zap.SugaredLogger
}

func NewReaper(cfg Config, events EventSink, logger *zap.SugaredLogger) *Reaper {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Reaper{cfg: cfg, events: events, logger: logger}
}

// Reap removes departed tracks from reg and returns those whose dwell qualifies
// for a session. Duration is measured to the last actual match, not to now.
func (r *Reaper) Reap(reg *Registry, seen Seen, now time.Time) []domain.ClosedTrack {
	var departed []string
	reg.Each(func(t *domain.Track) bool {
		if !seen.Has(t.Identity) && now.Sub(t.LastSeen) > r.cfg.GracePeriod {
			departed = append(departed, t.Identity)
		}
		return true
	})

	var closed []domain.ClosedTrack
	for _, id := range departed {
		t, ok := reg.Remove(id)
		if !ok {
			continue
		}
		ct := domain.ClosedTrack{
			Plate:     t.Identity,
			FirstSeen: t.FirstSeen,
			LastSeen:  t.LastSeen,
			Duration:  t.Dwell(),
			ReapedAt:  now,
		}
		emit := ct.Duration > r.cfg.MinDwell
		if emit {
			r.logger.Infof("Plate %s left after %s.", ct.Plate, ct.Duration)
			closed = append(closed, ct)
		} else {
			r.logger.Debugf("Reaper: dropping %s, dwell %s below minimum %s", ct.Plate, ct.Duration, r.cfg.MinDwell)
		}

		if r.events != nil {
			r.events.PublishTrackEvent(domain.TrackEvent{
				EventID:        uuid.NewString(),
				Type:           domain.TrackDeparted,
				Plate:          ct.Plate,
				Timestamp:      now,
				DwellSeconds:   ct.Duration.Seconds(),
				SessionEmitted: emit,
				Lot:            r.cfg.Lot,
				Slot:           r.cfg.Slot,
			})
		}
	}
	return closed
}
