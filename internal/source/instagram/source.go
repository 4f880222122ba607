package instagram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"viral_daily/internal/domain"
	"viral_daily/internal/source"
)

const (
	maxResults   = 50
	mediaFields  = "id,caption,media_type,media_url,permalink,thumbnail_url,like_count,comments_count,timestamp"
	graphTimeFmt = "2006-01-02T15:04:05-0700"
	captionLimit = 120
)

var synthetic = source.Synthetic{
	Platform:      domain.PlatformInstagram,
	Title:         "Instagram Viral Reel %d",
	URL:           "https://www.instagram.com/reel/mock%d",
	Thumbnail:     "https://via.placeholder.com/300x300/E4405F/FFFFFF?text=IG+%d",
	Author:        "@instagrammer%d",
	Views:         3_000_000,
	ViewsStep:     180_000,
	Likes:         180_000,
	LikesStep:     9_000,
	Score:         88,
	ScoreStep:     2.2,
	PublishedStep: 90 * time.Minute,
}

var errHashtagNotFound = errors.New("hashtag not found")

// Config holds Instagram Graph API configuration.
type Config struct {
	BaseURL     string
	AccessToken string
	UserID      string
	Hashtag     string
}

// Source reads the top media of a hashtag through the Instagram Graph API
// and keeps the videos.
type Source struct {
	client      *source.Client
	baseURL     string
	accessToken string
	userID      string
	hashtag     string
	logger      *slog.Logger
	now         func() time.Time
}

func New(cfg Config, client *source.Client, logger *slog.Logger) *Source {
	return &Source{
		client:      client,
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		userID:      cfg.UserID,
		hashtag:     cfg.Hashtag,
		logger:      logger.With("platform", domain.PlatformInstagram),
		now:         time.Now,
	}
}

func (s *Source) Platform() domain.Platform {
	return domain.PlatformInstagram
}

func (s *Source) Fetch(ctx context.Context, limit int) []domain.Video {
	return source.Collect(ctx, s.logger, domain.PlatformInstagram, limit, s.fetch)
}

func (s *Source) fetch(ctx context.Context, limit int) ([]domain.Video, error) {
	if s.accessToken == "" || s.userID == "" {
		return synthetic.Generate(limit, s.now().UTC()), nil
	}

	hashtagID, err := s.hashtagID(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("user_id", s.userID)
	q.Set("fields", mediaFields)
	q.Set("limit", strconv.Itoa(maxResults))
	q.Set("access_token", s.accessToken)

	var resp MediaResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"/"+hashtagID+"/top_media?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch top media: %w", err)
	}

	return s.transform(resp.Data), nil
}

func (s *Source) hashtagID(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("user_id", s.userID)
	q.Set("q", s.hashtag)
	q.Set("access_token", s.accessToken)

	var resp HashtagSearchResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"/ig_hashtag_search?"+q.Encode(), nil, &resp); err != nil {
		return "", fmt.Errorf("search hashtag: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].ID == "" {
		return "", fmt.Errorf("search hashtag %q: %w", s.hashtag, errHashtagNotFound)
	}

	return resp.Data[0].ID, nil
}

func (s *Source) transform(items []Media) []domain.Video {
	videos := make([]domain.Video, 0, len(items))

	for _, m := range items {
		if m.MediaType != "VIDEO" || m.Permalink == "" {
			continue
		}

		thumb := m.ThumbnailURL
		if thumb == "" {
			thumb = m.MediaURL
		}

		v := domain.Video{
			Title:        title(m.Caption),
			URL:          m.Permalink,
			ThumbnailURL: thumb,
			Likes:        source.Ptr(max(m.LikeCount, 0)),
			ViralScore:   Score(m.LikeCount, m.CommentsCount),
		}
		if m.Caption != "" {
			v.Description = source.Ptr(m.Caption)
		}
		if t, err := time.Parse(graphTimeFmt, m.Timestamp); err == nil {
			v.PublishedAt = &t
		}

		videos = append(videos, v)
	}

	return videos
}

// Score uses likes and comments; the hashtag endpoint exposes no view counts.
func Score(likes, comments int64) float64 {
	return source.LogScore(likes, 10) + source.LogScore(comments, 6)
}

func title(caption string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(caption), "\n")
	if line == "" {
		return "Instagram reel"
	}
	r := []rune(line)
	if len(r) > captionLimit {
		return string(r[:captionLimit]) + "…"
	}
	return line
}
