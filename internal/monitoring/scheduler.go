package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/taskboard-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	eventSvc  services.EventServiceProvider
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// NewScheduler creates a scheduler that purges events older than retention
// on the given standard cron spec.
func NewScheduler(eventSvc services.EventServiceProvider, spec string, retention time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		eventSvc:  eventSvc,
		retention: retention,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.purgeEvents); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the scheduler in the background.
func (s *Scheduler) Run() {
	log.Info().Dur("retention", s.retention).Msg("Starting background scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

// purgeEvents deletes activity events that fell out of the retention window.
func (s *Scheduler) purgeEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	n, err := s.eventSvc.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("Scheduler: failed to purge events")
		return
	}
	log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Scheduler: purged old events")
}
