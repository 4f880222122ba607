package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"viral_daily/internal/domain"
	"viral_daily/internal/source"
)

const (
	minResults       = 10
	maxResults       = 100
	placeholderThumb = "https://placehold.co/400x225?text=X"
)

var synthetic = source.Synthetic{
	Platform:      domain.PlatformTwitter,
	Title:         "Twitter Viral Video %d",
	URL:           "https://twitter.com/user/status/mock%d",
	Thumbnail:     "https://via.placeholder.com/400x225/1DA1F2/FFFFFF?text=Twitter+%d",
	Author:        "@twitteruser%d",
	Views:         2_000_000,
	ViewsStep:     150_000,
	Likes:         100_000,
	LikesStep:     8_000,
	Shares:        25_000,
	SharesStep:    2_000,
	Score:         80,
	ScoreStep:     1.8,
	PublishedStep: 3 * time.Hour,
}

// Config holds X/Twitter source configuration.
type Config struct {
	BaseURL     string
	BearerToken string
	Query       string
}

// Source runs a recent search for video tweets on the X API v2.
type Source struct {
	client      *source.Client
	baseURL     string
	bearerToken string
	query       string
	logger      *slog.Logger
	now         func() time.Time
}

func New(cfg Config, client *source.Client, logger *slog.Logger) *Source {
	return &Source{
		client:      client,
		baseURL:     cfg.BaseURL,
		bearerToken: cfg.BearerToken,
		query:       cfg.Query,
		logger:      logger.With("platform", domain.PlatformTwitter),
		now:         time.Now,
	}
}

func (s *Source) Platform() domain.Platform {
	return domain.PlatformTwitter
}

func (s *Source) Fetch(ctx context.Context, limit int) []domain.Video {
	return source.Collect(ctx, s.logger, domain.PlatformTwitter, limit, s.fetch)
}

func (s *Source) fetch(ctx context.Context, limit int) ([]domain.Video, error) {
	if s.bearerToken == "" {
		return synthetic.Generate(limit, s.now().UTC()), nil
	}

	q := url.Values{}
	q.Set("query", s.query)
	q.Set("max_results", strconv.Itoa(min(max(limit, minResults), maxResults)))
	q.Set("tweet.fields", "public_metrics,attachments,created_at")
	q.Set("expansions", "attachments.media_keys,author_id")
	q.Set("media.fields", "preview_image_url,duration_ms,public_metrics,type")
	q.Set("user.fields", "username")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.bearerToken)

	var resp SearchResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"/tweets/search/recent?"+q.Encode(), header, &resp); err != nil {
		return nil, fmt.Errorf("search recent: %w", err)
	}

	return s.transform(resp), nil
}

func (s *Source) transform(resp SearchResponse) []domain.Video {
	users := make(map[string]string, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		users[u.ID] = u.Username
	}
	media := make(map[string]Media, len(resp.Includes.Media))
	for _, m := range resp.Includes.Media {
		media[m.MediaKey] = m
	}

	videos := make([]domain.Video, 0, len(resp.Data))
	for _, t := range resp.Data {
		username, ok := users[t.AuthorID]
		if !ok {
			username = "unknown"
		}

		views := t.PublicMetrics.ImpressionCount
		thumb := placeholderThumb
		var duration *string
		if t.Attachments != nil {
			for _, key := range t.Attachments.MediaKeys {
				m, ok := media[key]
				if !ok {
					continue
				}
				if m.PreviewImageURL != "" {
					thumb = m.PreviewImageURL
				}
				if m.PublicMetrics != nil && m.PublicMetrics.ViewCount > views {
					views = m.PublicMetrics.ViewCount
				}
				if m.DurationMs > 0 {
					duration = source.Ptr((time.Duration(m.DurationMs) * time.Millisecond).String())
				}
				break
			}
		}

		likes := t.PublicMetrics.LikeCount
		shares := t.PublicMetrics.RetweetCount + t.PublicMetrics.QuoteCount

		v := domain.Video{
			Title:        t.Text,
			URL:          fmt.Sprintf("https://x.com/%s/status/%s", username, t.ID),
			ThumbnailURL: thumb,
			Views:        source.Ptr(views),
			Likes:        source.Ptr(likes),
			Shares:       source.Ptr(shares),
			Author:       source.Ptr("@" + username),
			Duration:     duration,
			ViralScore:   Score(views, likes, shares),
		}
		if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
			v.PublishedAt = &ts
		}

		videos = append(videos, v)
	}

	return videos
}

// Score weighs likes and reposts above raw views.
func Score(views, likes, shares int64) float64 {
	return source.LogScore(views, 6) + source.LogScore(likes, 8) + source.LogScore(shares, 8)
}
