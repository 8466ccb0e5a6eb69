// Package scheduler triggers harvest runs on a cron schedule.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the given function on the configured cron spec. Overlap
// protection is not handled here; the pipeline's run lock covers it.
type Scheduler struct {
	cron *cron.Cron
	run  func(ctx context.Context)
	spec string
}

// New creates a Scheduler. The spec accepts standard cron expressions
// and the @every / @hourly descriptors.
func New(run func(ctx context.Context), spec string) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		run:  run,
		spec: spec,
	}
}

// Start registers the job and starts the cron loop. An initial run fires
// immediately so a fresh deployment does not sit idle until the first
// tick. Start returns once the loop is running.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return err
	}

	log.Info().Str("schedule", s.spec).Msg("Starting harvest scheduler")
	s.cron.Start()

	go s.run(ctx)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Harvest scheduler stopped")
}
