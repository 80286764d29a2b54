package server

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/logging"
	"github.com/dmitrijs2005/tipjar/internal/server/services"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic users rebuild from the ledger.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers job under a standard five-field cron spec or a
// descriptor such as "@hourly".
func NewScheduler(spec string, job func()) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("invalid backfill schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func backfillJob(ctx context.Context, run func(context.Context) (*services.BackfillResult, error), logger logging.Logger) func() {
	return func() {
		res, err := run(ctx)
		if err != nil {
			logger.Error(ctx, "scheduled backfill failed", "error", err)
			return
		}
		logger.Info(ctx, "scheduled backfill done", "scanned", res.Scanned, "created", res.Created)
	}
}
