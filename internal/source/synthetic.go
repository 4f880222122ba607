package source

import (
	"fmt"
	"time"

	"viral_daily/internal/domain"
)

// Synthetic describes a deterministic stand-in feed for a platform. Format
// strings receive the 1-based position of the video.
type Synthetic struct {
	Platform      domain.Platform
	Title         string
	URL           string
	Thumbnail     string
	Author        string
	Views         int64
	ViewsStep     int64
	Likes         int64
	LikesStep     int64
	Shares        int64
	SharesStep    int64
	Score         float64
	ScoreStep     float64
	PublishedStep time.Duration
}

// Generate returns limit videos with strictly decreasing scores.
func (s Synthetic) Generate(limit int, now time.Time) []domain.Video {
	if limit <= 0 {
		return []domain.Video{}
	}

	videos := make([]domain.Video, 0, limit)
	for i := 0; i < limit; i++ {
		n := i + 1
		published := now.Add(-time.Duration(i) * s.PublishedStep)

		v := domain.Video{
			Title:        fmt.Sprintf(s.Title, n),
			URL:          fmt.Sprintf(s.URL, n),
			ThumbnailURL: fmt.Sprintf(s.Thumbnail, n),
			Platform:     s.Platform,
			Views:        Ptr(s.Views + int64(i)*s.ViewsStep),
			Likes:        Ptr(s.Likes + int64(i)*s.LikesStep),
			Author:       Ptr(fmt.Sprintf(s.Author, n)),
			ViralScore:   s.Score - float64(i)*s.ScoreStep,
			FetchedAt:    now,
			PublishedAt:  &published,
		}
		if s.Shares > 0 {
			v.Shares = Ptr(s.Shares + int64(i)*s.SharesStep)
		}

		videos = append(videos, v)
	}

	return videos
}
