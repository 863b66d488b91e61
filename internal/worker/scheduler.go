package worker

import (
	"context"
	"fmt"

	"github.com/Lutefd/exchange-symbols/internal/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler repeats a job on a cron schedule. Every run is independent; a
// run that overlaps the previous one is skipped rather than queued.
type Scheduler struct {
	cron *cron.Cron
	job  func(ctx context.Context)
	ctx  context.Context
}

func NewScheduler(spec string, job func(ctx context.Context)) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(logger.InfoLogger)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)))
	s := &Scheduler{cron: c, job: job, ctx: context.Background()}

	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("failed to schedule symbols lookup: %w", err)
	}
	return s, nil
}

// Start runs the job once immediately and then on schedule until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.job(ctx)

	s.cron.Start()
	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	logger.Info("symbols scheduler stopped")
}

func (s *Scheduler) runScheduled() {
	if s.ctx.Err() != nil {
		return
	}
	s.job(s.ctx)
}
