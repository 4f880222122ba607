// Package source holds the pieces shared by the platform adapters: the
// retrying JSON client, the adapter boundary guard and the synthetic
// generator used when a platform has no credentials configured.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"viral_daily/internal/domain"
)

// FetchFunc fetches up to limit videos from one platform.
type FetchFunc func(ctx context.Context, limit int) ([]domain.Video, error)

// Collect runs fetch at the adapter boundary. Errors and panics from the
// underlying collaborator degrade to an empty result. The returned slice is
// never nil, holds at most limit videos and is ordered by descending score.
func Collect(ctx context.Context, logger *slog.Logger, platform domain.Platform, limit int, fetch FetchFunc) (videos []domain.Video) {
	if limit <= 0 {
		return []domain.Video{}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("source panicked", "panic", fmt.Sprint(r))
			videos = []domain.Video{}
		}
	}()

	fetched, err := fetch(ctx, limit)
	if err != nil {
		logger.Warn("source unavailable", "error", err)
		return []domain.Video{}
	}

	now := time.Now().UTC()
	for i := range fetched {
		v := &fetched[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.FetchedAt.IsZero() {
			v.FetchedAt = now
		}
		v.Platform = platform
	}

	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].ViralScore > fetched[j].ViralScore
	})

	if len(fetched) > limit {
		fetched = fetched[:limit]
	}
	if fetched == nil {
		fetched = []domain.Video{}
	}

	logger.Debug("fetched videos", "count", len(fetched), "limit", limit)

	return fetched
}

// LogScore maps an engagement count onto a slowly growing scale so that
// counts of very different magnitudes can be summed with weights.
func LogScore(n int64, weight float64) float64 {
	if n <= 0 {
		return 0
	}
	return weight * math.Log10(1+float64(n))
}

// Ptr is shared by the adapters for the optional Video fields.
func Ptr[T any](v T) *T {
	return &v
}
