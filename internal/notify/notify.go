// Package notify delivers digests to subscribers over their chosen
// delivery methods.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"viral_daily/internal/domain"
)

var (
	ErrNoSink    = errors.New("no sink registered for delivery method")
	ErrNoMethods = errors.New("subscription has no delivery methods")
)

// Digest is one digest addressed to one recipient over one method.
type Digest struct {
	SubscriptionID string
	Method         domain.DeliveryMethod
	Recipient      string
	Videos         []domain.Video
}

// Sink sends a digest over a single delivery method.
type Sink interface {
	Send(ctx context.Context, d Digest) error
}

// Router dispatches a subscriber's digest to the sink of every method the
// subscriber declared. The delivery succeeds only if every method does.
type Router struct {
	sinks  map[domain.DeliveryMethod]Sink
	logger *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		sinks:  make(map[domain.DeliveryMethod]Sink),
		logger: logger.With("component", "notify_router"),
	}
}

// Register sets the sink for method, replacing any previous one.
func (r *Router) Register(method domain.DeliveryMethod, sink Sink) *Router {
	r.sinks[method] = sink
	return r
}

func (r *Router) Deliver(ctx context.Context, sub *domain.Subscription, videos []domain.Video) error {
	if len(sub.DeliveryMethods) == 0 {
		return ErrNoMethods
	}

	var errs []error
	for _, method := range sub.DeliveryMethods {
		sink, ok := r.sinks[method]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", method, ErrNoSink))
			continue
		}

		start := time.Now()
		err := sink.Send(ctx, Digest{
			SubscriptionID: sub.ID,
			Method:         method,
			Recipient:      sub.Recipient(method),
			Videos:         videos,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", method, err))
			continue
		}

		r.logger.Debug("digest sent",
			"subscription_id", sub.ID,
			"method", method,
			"duration", time.Since(start),
		)
	}

	return errors.Join(errs...)
}
