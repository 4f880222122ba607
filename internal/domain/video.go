package domain

import (
	"fmt"
	"time"
)

type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
)

// AllPlatforms lists platforms in the order their results are merged.
func AllPlatforms() []Platform {
	return []Platform{PlatformYouTube, PlatformTikTok, PlatformTwitter, PlatformInstagram}
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	switch p {
	case PlatformYouTube, PlatformTikTok, PlatformTwitter, PlatformInstagram:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Video is a normalized record produced by a source adapter. URL is the
// persistence identity: a re-fetch of the same URL overwrites the stored row.
type Video struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	URL          string     `db:"url" json:"url"`
	ThumbnailURL string     `db:"thumbnail_url" json:"thumbnail"`
	Platform     Platform   `db:"platform" json:"platform"`
	Views        *int64     `db:"views" json:"views,omitempty"`
	Likes        *int64     `db:"likes" json:"likes,omitempty"`
	Shares       *int64     `db:"shares" json:"shares,omitempty"`
	Author       *string    `db:"author" json:"author,omitempty"`
	Duration     *string    `db:"duration" json:"duration,omitempty"`
	Description  *string    `db:"description" json:"description,omitempty"`
	ViralScore   float64    `db:"viral_score" json:"viral_score"`
	FetchedAt    time.Time  `db:"fetched_at" json:"fetched_at"`
	PublishedAt  *time.Time `db:"published_at" json:"published_at,omitempty"`
}
