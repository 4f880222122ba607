package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"viral_daily/internal/domain"
	"viral_daily/internal/metrics"
)

// Aggregator fans out to every platform adapter and merges the results by
// viral score. It is built once at startup and holds no other state.
type Aggregator struct {
	sources    []Source
	byPlatform map[domain.Platform]Source
	timeout    time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewAggregator registers sources in the given order, which is also the
// tie-break order when merging. A later source for the same platform
// replaces the earlier one.
func NewAggregator(sources []Source, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Aggregator {
	a := &Aggregator{
		byPlatform: make(map[domain.Platform]Source, len(sources)),
		timeout:    timeout,
		metrics:    m,
		logger:     logger.With("component", "aggregator"),
	}
	for _, src := range sources {
		if _, dup := a.byPlatform[src.Platform()]; dup {
			for i := range a.sources {
				if a.sources[i].Platform() == src.Platform() {
					a.sources[i] = src
				}
			}
		} else {
			a.sources = append(a.sources, src)
		}
		a.byPlatform[src.Platform()] = src
	}
	return a
}

func (a *Aggregator) Platforms() []domain.Platform {
	platforms := make([]domain.Platform, 0, len(a.sources))
	for _, src := range a.sources {
		platforms = append(platforms, src.Platform())
	}
	return platforms
}

// GetAggregated splits limit evenly across the sources (the remainder is not
// requested), fetches concurrently and returns at most limit videos ordered by
// descending score. Ties keep source registration order.
func (a *Aggregator) GetAggregated(ctx context.Context, limit int) []domain.Video {
	if limit <= 0 || len(a.sources) == 0 {
		return []domain.Video{}
	}

	perSource := limit / len(a.sources)
	results := make([][]domain.Video, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		i, src := i, src
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.fetch(ctx, src, perSource)
		}()
	}
	wg.Wait()

	merged := make([]domain.Video, 0, perSource*len(a.sources))
	for _, videos := range results {
		merged = append(merged, videos...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ViralScore > merged[j].ViralScore
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}

	a.logger.Debug("aggregated videos",
		"limit", limit,
		"per_source", perSource,
		"count", len(merged),
	)

	return merged
}

// GetPlatform delegates to the single adapter of platform.
func (a *Aggregator) GetPlatform(ctx context.Context, platform domain.Platform, limit int) ([]domain.Video, error) {
	src, ok := a.byPlatform[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPlatform, platform)
	}
	return a.fetch(ctx, src, limit), nil
}

// fetch bounds one adapter call by the per-source timeout. An adapter that
// does not honour its context is abandoned and counts as empty.
func (a *Aggregator) fetch(ctx context.Context, src Source, limit int) []domain.Video {
	if limit <= 0 {
		return []domain.Video{}
	}

	platform := src.Platform()
	start := time.Now()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	done := make(chan []domain.Video, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("source panicked", "platform", platform, "panic", fmt.Sprint(r))
				done <- nil
			}
		}()
		done <- src.Fetch(ctx, limit)
	}()

	var videos []domain.Video
	select {
	case videos = <-done:
	case <-ctx.Done():
		a.logger.Warn("source timed out",
			"platform", platform,
			"timeout", a.timeout,
			"error", ctx.Err(),
		)
	}

	if len(videos) > limit {
		videos = videos[:limit]
	}
	if videos == nil {
		videos = []domain.Video{}
	}

	a.metrics.RecordFetch(string(platform), len(videos), time.Since(start))

	return videos
}
