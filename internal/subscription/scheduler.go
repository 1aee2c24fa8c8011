// AngelaMos | 2026
// scheduler.go

package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/schooltino/api/internal/plan"
)

const tickTimeout = 5 * time.Minute

// Scheduler drives the periodic work: hourly state-machine advances and
// a daily prune of closed quota periods. Both jobs are idempotent, so a
// missed or doubled tick is harmless.
type Scheduler struct {
	cron     *cron.Cron
	service  *Service
	registry *plan.Registry
	logger   *slog.Logger
}

func NewScheduler(
	service *Service,
	registry *plan.Registry,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		service:  service,
		registry: registry,
		logger:   logger,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1h", s.advanceTick); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.pruneTick); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("subscription scheduler started")
	return nil
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("subscription scheduler stopped")
}

func (s *Scheduler) advanceTick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if err := s.service.AdvanceAll(ctx, time.Now()); err != nil {
		s.logger.Error("subscription advance tick failed", "error", err)
	}
}

func (s *Scheduler) pruneTick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if err := s.registry.ResetMonthlyCounters(ctx); err != nil {
		s.logger.Error("quota prune tick failed", "error", err)
	}
}
