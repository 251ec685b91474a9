package deposits

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"coinforge/internal/infra"
)

// Scheduler runs ReconcileAll on a fixed interval. An interval of zero
// disables the timer entirely; the on-demand scan endpoint keeps working
// either way.
type Scheduler struct {
	cron   *cron.Cron
	logger infra.Logger
}

func NewScheduler(reconciler *Reconciler, interval time.Duration, logger infra.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return &Scheduler{logger: logger}, nil
	}
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := reconciler.ReconcileAll(context.Background()); err != nil {
			logger.Error().Err(err).Msg("scheduler: sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins the timer. No-op when the timer is disabled.
func (s *Scheduler) Start() {
	if s.cron == nil {
		s.logger.Info().Msg("scheduler: deposit timer disabled, on-demand scans only")
		return
	}
	s.cron.Start()
	s.logger.Info().Msg("scheduler: deposit timer started")
}

// Stop halts the timer and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
