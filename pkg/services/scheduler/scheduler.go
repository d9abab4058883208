package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler triggers the report run on a cron schedule. It owns no report
// state; each firing gets a fresh context carrying the logger.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// ScheduleDaily registers job under a standard 5-field cron spec
// (e.g. "0 0 * * *" for midnight).
func (s *Scheduler) ScheduleDaily(spec string, job func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info().Str("schedule", spec).Msg("running scheduled report")
		ctx := s.logger.WithContext(context.Background())
		job(ctx)
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
