package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"viral_daily/internal/config"
	"viral_daily/internal/domain"
	"viral_daily/internal/metrics"
)

// DeliveryService fans the daily digest out to every active subscriber. Each
// subscriber is delivered by its own background task, so one failing
// subscriber never affects another.
type DeliveryService struct {
	aggregator    VideoAggregator
	subscriptions SubscriptionStore
	deliveries    DeliveryStore
	txManager     TransactionManager
	sink          NotificationSink
	dispatcher    *Dispatcher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	cfg           config.DeliveryConfig
	now           func() time.Time
}

func NewDeliveryService(
	aggregator VideoAggregator,
	subscriptions SubscriptionStore,
	deliveries DeliveryStore,
	txManager TransactionManager,
	sink NotificationSink,
	dispatcher *Dispatcher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg config.DeliveryConfig,
) *DeliveryService {
	return &DeliveryService{
		aggregator:    aggregator,
		subscriptions: subscriptions,
		deliveries:    deliveries,
		txManager:     txManager,
		sink:          sink,
		dispatcher:    dispatcher,
		metrics:       m,
		logger:        logger.With("component", "delivery_service"),
		cfg:           cfg,
		now:           time.Now,
	}
}

// RunDailyDelivery builds the digest, schedules one task per active
// subscriber and returns without waiting for them. Only a failure to list
// subscribers is reported.
func (s *DeliveryService) RunDailyDelivery(ctx context.Context) (*domain.DeliveryRun, error) {
	digest := s.aggregator.GetAggregated(ctx, s.cfg.DigestSize)

	subs, err := s.subscriptions.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}

	run := &domain.DeliveryRun{
		ID:         uuid.NewString(),
		StartedAt:  s.now().UTC(),
		DigestSize: len(digest),
		Scheduled:  len(subs),
	}

	// Attempt rows reference the run, so they are skipped when it is missing.
	recorded := true
	if err := s.deliveries.CreateRun(ctx, run); err != nil {
		recorded = false
		s.logger.Error("failed to record delivery run, attempts will not be recorded",
			"run_id", run.ID,
			"error", err,
		)
	}

	// Tasks outlive the request that triggered them.
	taskCtx := context.WithoutCancel(ctx)

	for i := range subs {
		sub := subs[i]
		s.dispatcher.Submit(func() {
			s.deliver(taskCtx, run.ID, recorded, &sub, digest)
		})
	}

	s.metrics.DeliveryRuns.Inc()

	s.logger.Info("daily delivery scheduled",
		"run_id", run.ID,
		"digest_size", run.DigestSize,
		"scheduled", run.Scheduled,
	)

	return run, nil
}

func (s *DeliveryService) deliver(ctx context.Context, runID string, recorded bool, sub *domain.Subscription, digest []domain.Video) {
	start := time.Now()
	logger := s.logger.With("run_id", runID, "subscription_id", sub.ID)

	err := s.send(ctx, sub, digest)

	attempt := &domain.DeliveryAttempt{
		RunID:          runID,
		SubscriptionID: sub.ID,
		AttemptedAt:    s.now().UTC(),
	}

	if err != nil {
		logger.Error("delivery failed", "error", err)

		msg := err.Error()
		attempt.Status = domain.AttemptFailed
		attempt.Error = &msg

		if recorded {
			s.recordAttempt(ctx, logger, attempt)
		}

		s.metrics.RecordDelivery(string(domain.AttemptFailed), time.Since(start))
		return
	}

	// last_delivery commits independently of the attempt row.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.subscriptions.UpdateLastDelivery(txCtx, sub.ID, attempt.AttemptedAt)
	})
	if err != nil {
		logger.Error("failed to update last delivery", "error", err)
	}

	attempt.Status = domain.AttemptDelivered
	if recorded {
		s.recordAttempt(ctx, logger, attempt)
	}

	s.metrics.RecordDelivery(string(domain.AttemptDelivered), time.Since(start))

	logger.Info("digest delivered",
		"videos", len(digest),
		"duration", time.Since(start),
	)
}

func (s *DeliveryService) recordAttempt(ctx context.Context, logger *slog.Logger, attempt *domain.DeliveryAttempt) {
	if err := s.deliveries.RecordAttempt(ctx, attempt); err != nil {
		logger.Error("failed to record delivery attempt",
			"status", attempt.Status,
			"error", err,
		)
	}
}

func (s *DeliveryService) send(ctx context.Context, sub *domain.Subscription, digest []domain.Video) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.sink.Deliver(ctx, sub, digest)
}

// Run returns the summary of a delivery run.
func (s *DeliveryService) Run(ctx context.Context, id string) (*domain.DeliveryRun, error) {
	run, err := s.deliveries.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get delivery run: %w", err)
	}
	return run, nil
}

// Wait blocks until every scheduled delivery task has finished.
func (s *DeliveryService) Wait() {
	s.dispatcher.Wait()
}
