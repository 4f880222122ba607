package tiktok

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"viral_daily/internal/domain"
	"viral_daily/internal/source"
)

const (
	maxCount         = 100
	placeholderThumb = "https://via.placeholder.com/300x400/FF0050/FFFFFF?text=TikTok"
	queryFields      = "id,video_description,create_time,username,view_count,like_count,share_count,video_duration"
)

var synthetic = source.Synthetic{
	Platform:      domain.PlatformTikTok,
	Title:         "TikTok Viral Video %d",
	URL:           "https://www.tiktok.com/@user/video/mock%d",
	Thumbnail:     "https://via.placeholder.com/300x400/FF0050/FFFFFF?text=TikTok+%d",
	Author:        "@tiktoker%d",
	Views:         5_000_000,
	ViewsStep:     200_000,
	Likes:         250_000,
	LikesStep:     10_000,
	Score:         85,
	ScoreStep:     1.5,
	PublishedStep: 2 * time.Hour,
}

// Config holds TikTok source configuration.
type Config struct {
	BaseURL     string
	AccessToken string
}

// Source queries the TikTok research API for the last day's videos.
type Source struct {
	client      *source.Client
	baseURL     string
	accessToken string
	logger      *slog.Logger
	now         func() time.Time
}

func New(cfg Config, client *source.Client, logger *slog.Logger) *Source {
	return &Source{
		client:      client,
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		logger:      logger.With("platform", domain.PlatformTikTok),
		now:         time.Now,
	}
}

func (s *Source) Platform() domain.Platform {
	return domain.PlatformTikTok
}

func (s *Source) Fetch(ctx context.Context, limit int) []domain.Video {
	return source.Collect(ctx, s.logger, domain.PlatformTikTok, limit, s.fetch)
}

func (s *Source) fetch(ctx context.Context, limit int) ([]domain.Video, error) {
	now := s.now().UTC()
	if s.accessToken == "" {
		return synthetic.Generate(limit, now), nil
	}

	req := QueryRequest{
		Query: Query{And: []Condition{
			{Operation: "IN", FieldName: "region_code", FieldValues: []string{"US"}},
		}},
		StartDate: now.AddDate(0, 0, -1).Format("20060102"),
		EndDate:   now.Format("20060102"),
		// Ask for more than needed and keep the most engaging ones.
		MaxCount: maxCount,
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.accessToken)

	endpoint := s.baseURL + "/research/video/query/?fields=" + url.QueryEscape(queryFields)

	var resp APIResponse
	if err := s.client.PostJSON(ctx, endpoint, header, req, &resp); err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	if resp.Error.Code != "" && resp.Error.Code != "ok" {
		return nil, fmt.Errorf("query videos: %s: %s", resp.Error.Code, resp.Error.Message)
	}

	return s.transform(resp.Data.Videos), nil
}

func (s *Source) transform(items []Video) []domain.Video {
	videos := make([]domain.Video, 0, len(items))

	for _, item := range items {
		username := strings.TrimPrefix(item.Username, "@")
		if username == "" {
			username = "user"
		}
		id := strconv.FormatInt(item.ID, 10)

		title := item.VideoDescription
		if title == "" {
			title = "TikTok video"
		}

		v := domain.Video{
			Title:        title,
			URL:          fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", username, id),
			ThumbnailURL: placeholderThumb,
			Views:        source.Ptr(max(item.ViewCount, 0)),
			Likes:        source.Ptr(max(item.LikeCount, 0)),
			Shares:       source.Ptr(max(item.ShareCount, 0)),
			Author:       source.Ptr("@" + username),
			ViralScore:   Score(item.ViewCount, item.LikeCount, item.ShareCount),
		}
		if item.VideoDuration > 0 {
			v.Duration = source.Ptr(strconv.Itoa(item.VideoDuration) + "s")
		}
		if item.CreateTime > 0 {
			t := time.Unix(item.CreateTime, 0).UTC()
			v.PublishedAt = &t
		}

		videos = append(videos, v)
	}

	return videos
}

// Score favours plays, then likes, then shares.
func Score(views, likes, shares int64) float64 {
	return source.LogScore(views, 8) + source.LogScore(likes, 6) + source.LogScore(shares, 4)
}
