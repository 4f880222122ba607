package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"viral_daily/internal/domain"
)

// Source is a platform adapter. Fetch never fails: an unavailable platform
// yields an empty slice.
type Source interface {
	Platform() domain.Platform
	Fetch(ctx context.Context, limit int) []domain.Video
}

type VideoAggregator interface {
	GetAggregated(ctx context.Context, limit int) []domain.Video
	GetPlatform(ctx context.Context, platform domain.Platform, limit int) ([]domain.Video, error)
}

type VideoStore interface {
	Upsert(ctx context.Context, video *domain.Video) error
	QueryHistory(ctx context.Context, windowDays int, platform *domain.Platform) ([]domain.Video, error)
}

type SourceStateStore interface {
	Record(ctx context.Context, platform domain.Platform, count int, at time.Time) error
	List(ctx context.Context) ([]domain.SourceState, error)
}

type SubscriptionStore interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	ListActive(ctx context.Context) ([]domain.Subscription, error)
	UpdateLastDelivery(ctx context.Context, id string, at time.Time) error
}

type DeliveryStore interface {
	CreateRun(ctx context.Context, run *domain.DeliveryRun) error
	RecordAttempt(ctx context.Context, attempt *domain.DeliveryAttempt) error
	GetRun(ctx context.Context, id string) (*domain.DeliveryRun, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NotificationSink delivers one digest to one subscriber.
type NotificationSink interface {
	Deliver(ctx context.Context, sub *domain.Subscription, videos []domain.Video) error
}
