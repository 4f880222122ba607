package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"viral_daily/internal/domain"
	"viral_daily/internal/source"
)

const maxResults = 50

var synthetic = source.Synthetic{
	Platform:      domain.PlatformYouTube,
	Title:         "YouTube Viral Video %d",
	URL:           "https://www.youtube.com/watch?v=mock%d",
	Thumbnail:     "https://img.youtube.com/vi/mock%d/maxresdefault.jpg",
	Author:        "Creator %d",
	Views:         1_000_000,
	ViewsStep:     100_000,
	Likes:         50_000,
	LikesStep:     5_000,
	Score:         90,
	ScoreStep:     2,
	PublishedStep: time.Hour,
}

// Config holds YouTube source configuration.
type Config struct {
	BaseURL    string
	APIKey     string
	RegionCode string
}

// Source fetches the mostPopular chart from the YouTube Data API, or
// generates synthetic videos when no API key is configured.
type Source struct {
	client     *source.Client
	baseURL    string
	apiKey     string
	regionCode string
	logger     *slog.Logger
	now        func() time.Time
}

func New(cfg Config, client *source.Client, logger *slog.Logger) *Source {
	return &Source{
		client:     client,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		regionCode: cfg.RegionCode,
		logger:     logger.With("platform", domain.PlatformYouTube),
		now:        time.Now,
	}
}

func (s *Source) Platform() domain.Platform {
	return domain.PlatformYouTube
}

func (s *Source) Fetch(ctx context.Context, limit int) []domain.Video {
	return source.Collect(ctx, s.logger, domain.PlatformYouTube, limit, s.fetch)
}

func (s *Source) fetch(ctx context.Context, limit int) ([]domain.Video, error) {
	if s.apiKey == "" {
		return synthetic.Generate(limit, s.now().UTC()), nil
	}

	q := url.Values{}
	q.Set("part", "snippet,statistics,contentDetails")
	q.Set("chart", "mostPopular")
	q.Set("maxResults", strconv.Itoa(min(limit, maxResults)))
	q.Set("key", s.apiKey)
	if s.regionCode != "" {
		q.Set("regionCode", s.regionCode)
	}

	var resp APIResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"/videos?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch most popular: %w", err)
	}

	return s.transform(resp.Items), nil
}

func (s *Source) transform(items []Item) []domain.Video {
	videos := make([]domain.Video, 0, len(items))

	for _, item := range items {
		if item.ID == "" {
			continue
		}

		views := parseCount(item.Statistics.ViewCount)
		likes := parseCount(item.Statistics.LikeCount)

		v := domain.Video{
			Title:        item.Snippet.Title,
			URL:          "https://www.youtube.com/watch?v=" + item.ID,
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails, item.ID),
			Views:        &views,
			Likes:        &likes,
			ViralScore:   Score(views, likes),
		}
		if item.Snippet.ChannelTitle != "" {
			v.Author = source.Ptr(item.Snippet.ChannelTitle)
		}
		if item.Snippet.Description != "" {
			v.Description = source.Ptr(item.Snippet.Description)
		}
		if item.ContentDetails.Duration != "" {
			v.Duration = source.Ptr(item.ContentDetails.Duration)
		}
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			v.PublishedAt = &t
		} else {
			s.logger.Warn("failed to parse date",
				"video_id", item.ID,
				"date", item.Snippet.PublishedAt,
			)
		}

		videos = append(videos, v)
	}

	return videos
}

// Score weights views over likes on a log scale.
func Score(views, likes int64) float64 {
	return source.LogScore(views, 10) + source.LogScore(likes, 5)
}

func thumbnailURL(t Thumbnails, id string) string {
	for _, th := range []*Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.URL != "" {
			return th.URL
		}
	}
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
