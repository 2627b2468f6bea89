package service

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

// EntryCheckJanitor deletes entry checks older than the retention window.
type EntryCheckJanitor struct {
	repo      repository.EntryCheckRepository
	retention time.Duration
	clock     clock.Clock
	logger    *zap.SugaredLogger
}

func NewEntryCheckJanitor(repo repository.EntryCheckRepository, retention time.Duration, clk clock.Clock, logger *zap.SugaredLogger) *EntryCheckJanitor {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EntryCheckJanitor{repo: repo, retention: retention, clock: clk, logger: logger.Named("janitor")}
}

func (j *EntryCheckJanitor) Sweep(ctx context.Context) (int64, error) {
	cutoff := j.clock.Now().Add(-j.retention)
	n, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("EntryCheckJanitor.Sweep: %w", err)
	}
	if n > 0 {
		j.logger.Infof("Cleaned up %d entry checks older than %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}

// Schedule registers the sweep on s every interval. Overlapping runs are
// rescheduled rather than stacked.
func (j *EntryCheckJanitor) Schedule(s gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	job, err := s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := j.Sweep(ctx); err != nil {
				j.logger.Errorf("%v", err)
			}
		}),
		gocron.WithName("entry-check-retention"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("EntryCheckJanitor.Schedule: %w", err)
	}
	return job, nil
}
