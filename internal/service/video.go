package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"viral_daily/internal/domain"
	"viral_daily/internal/metrics"
)

// MaxHistoryDays bounds the history window a caller may request.
const MaxHistoryDays = 365

type VideoService struct {
	aggregator VideoAggregator
	videos     VideoStore
	states     SourceStateStore
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewVideoService(
	aggregator VideoAggregator,
	videos VideoStore,
	states SourceStateStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *VideoService {
	return &VideoService{
		aggregator: aggregator,
		videos:     videos,
		states:     states,
		metrics:    m,
		logger:     logger.With("component", "video_service"),
		now:        time.Now,
	}
}

// Fetch returns fresh videos from every platform, or from one platform when
// platform is set, and persists them. Persistence failures are logged and
// counted but never hide the fetched result.
func (s *VideoService) Fetch(ctx context.Context, platform *domain.Platform, limit int) ([]domain.Video, error) {
	var (
		videos []domain.Video
		err    error
	)

	if platform != nil {
		videos, err = s.aggregator.GetPlatform(ctx, *platform, limit)
		if err != nil {
			return nil, err
		}
	} else {
		videos = s.aggregator.GetAggregated(ctx, limit)
	}

	stats := s.store(ctx, videos)

	s.logger.Info("fetch completed",
		"fetched", stats.Fetched,
		"stored", stats.Stored,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return videos, nil
}

func (s *VideoService) store(ctx context.Context, videos []domain.Video) *domain.FetchStats {
	start := time.Now()
	stats := &domain.FetchStats{Fetched: len(videos)}
	counts := make(map[domain.Platform]int)

	for i := range videos {
		if err := s.videos.Upsert(ctx, &videos[i]); err != nil {
			s.logger.Error("failed to store video",
				"url", videos[i].URL,
				"platform", videos[i].Platform,
				"error", err,
			)
			s.metrics.UpsertErrors.Inc()
			stats.Errors++
			continue
		}
		stats.Stored++
		counts[videos[i].Platform]++
	}

	at := s.now().UTC()
	for platform, count := range counts {
		if err := s.states.Record(ctx, platform, count, at); err != nil {
			s.logger.Warn("failed to record source state",
				"platform", platform,
				"error", err,
			)
		}
	}

	stats.Duration = time.Since(start)
	return stats
}

// History returns stored videos fetched within the last days, highest score
// first.
func (s *VideoService) History(ctx context.Context, days int, platform *domain.Platform) ([]domain.Video, error) {
	if days < 0 || days > MaxHistoryDays {
		return nil, &domain.ValidationError{
			Field:   "days",
			Message: fmt.Sprintf("must be between 0 and %d", MaxHistoryDays),
		}
	}

	videos, err := s.videos.QueryHistory(ctx, days, platform)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	return videos, nil
}

// Sources reports fetch activity for every stored platform.
func (s *VideoService) Sources(ctx context.Context) ([]domain.SourceState, error) {
	states, err := s.states.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source states: %w", err)
	}
	return states, nil
}
