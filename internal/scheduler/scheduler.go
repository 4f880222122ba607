package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"viral_daily/internal/domain"
)

// DeliveryRunner schedules one daily digest run.
type DeliveryRunner interface {
	RunDailyDelivery(ctx context.Context) (*domain.DeliveryRun, error)
}

var ErrInvalidInterval = errors.New("scheduler interval must be positive")

type Config struct {
	Interval   time.Duration
	RunOnStart bool
	// Timeout bounds building the digest and scheduling the run, not the
	// deliveries themselves.
	Timeout time.Duration
}

type Scheduler struct {
	runner DeliveryRunner
	cfg    Config
	logger *slog.Logger
}

func NewScheduler(runner DeliveryRunner, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		logger: logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, s.cfg.Interval)
	}

	s.logger.Info("scheduler started",
		"interval", s.cfg.Interval,
		"run_on_start", s.cfg.RunOnStart,
	)

	if s.cfg.RunOnStart {
		s.runDelivery(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runDelivery(ctx)
		}
	}
}

func (s *Scheduler) runDelivery(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	run, err := s.runner.RunDailyDelivery(runCtx)
	if err != nil {
		s.logger.Error("daily delivery failed", "error", err)
		return
	}

	s.logger.Info("daily delivery triggered",
		"run_id", run.ID,
		"scheduled", run.Scheduled,
	)
}
