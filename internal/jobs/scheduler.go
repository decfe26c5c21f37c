package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"selfiebooth/internal/service"
)

// Scheduler runs the session expiry sweep on a fixed schedule. Expiry is an
// explicit background job here, not a side effect of kiosk page loads, so
// the table cannot grow unbounded on an idle booth.
type Scheduler struct {
	cron  *cron.Cron
	booth *service.BoothService
	log   zerolog.Logger
}

func NewScheduler(booth *service.BoothService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		booth: booth,
		log:   log,
	}
}

func (s *Scheduler) Start(interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop waits for an in-flight sweep to finish, up to a grace period.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.booth.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("swept expired sessions")
	}
}
