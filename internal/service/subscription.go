package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"viral_daily/internal/domain"
)

type SubscriptionService struct {
	store  SubscriptionStore
	logger *slog.Logger
	now    func() time.Time
}

func NewSubscriptionService(store SubscriptionStore, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:  store,
		logger: logger.With("component", "subscription_service"),
		now:    time.Now,
	}
}

// Create validates the request and stores an active subscription. A
// *domain.ValidationError is returned unwrapped.
func (s *SubscriptionService) Create(ctx context.Context, in domain.SubscriptionCreate) (*domain.Subscription, error) {
	methods, err := in.Validate()
	if err != nil {
		return nil, err
	}

	sub := &domain.Subscription{
		ID:              uuid.NewString(),
		Email:           trimmed(in.Email),
		TelegramID:      trimmed(in.TelegramID),
		WhatsAppNumber:  trimmed(in.WhatsAppNumber),
		DeliveryMethods: methods,
		Active:          true,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.store.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	s.logger.Info("subscription created",
		"id", sub.ID,
		"methods", methods,
	)

	return sub, nil
}

func (s *SubscriptionService) ListActive(ctx context.Context) ([]domain.Subscription, error) {
	subs, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	return subs, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
