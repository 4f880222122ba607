package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"viral_daily/internal/domain"
)

// HistoryLimit caps the number of rows a history query returns.
const HistoryLimit = 100

type VideoStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewVideoStore(db *sqlx.DB) *VideoStore {
	return &VideoStore{db: db, now: time.Now}
}

// Upsert inserts the video or overwrites the row with the same url. The
// stored id wins over the incoming one and is written back to video.
func (s *VideoStore) Upsert(ctx context.Context, video *domain.Video) error {
	query := `
		INSERT INTO videos (
			id, title, url, thumbnail_url, platform, views, likes, shares,
			author, duration, description, viral_score, fetched_at, published_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			thumbnail_url = EXCLUDED.thumbnail_url,
			platform = EXCLUDED.platform,
			views = EXCLUDED.views,
			likes = EXCLUDED.likes,
			shares = EXCLUDED.shares,
			author = EXCLUDED.author,
			duration = EXCLUDED.duration,
			description = EXCLUDED.description,
			viral_score = EXCLUDED.viral_score,
			fetched_at = EXCLUDED.fetched_at,
			published_at = EXCLUDED.published_at
		RETURNING id`

	var id string
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		video.ID,
		video.Title,
		video.URL,
		video.ThumbnailURL,
		video.Platform,
		video.Views,
		video.Likes,
		video.Shares,
		video.Author,
		video.Duration,
		video.Description,
		video.ViralScore,
		video.FetchedAt,
		video.PublishedAt,
	).Scan(&id)
	if err != nil {
		return err
	}

	video.ID = id
	return nil
}

// QueryHistory returns videos fetched within the last windowDays days,
// optionally restricted to one platform, highest score first.
func (s *VideoStore) QueryHistory(ctx context.Context, windowDays int, platform *domain.Platform) ([]domain.Video, error) {
	to := s.now().UTC()
	from := to.AddDate(0, 0, -windowDays)

	query := `
		SELECT id, title, url, thumbnail_url, platform, views, likes, shares,
			author, duration, description, viral_score, fetched_at, published_at
		FROM videos
		WHERE fetched_at BETWEEN $1 AND $2`
	args := []any{from, to}

	if platform != nil {
		query += ` AND platform = $3`
		args = append(args, *platform)
	}

	query += fmt.Sprintf(` ORDER BY viral_score DESC LIMIT %d`, HistoryLimit)

	videos := make([]domain.Video, 0)
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &videos, query, args...); err != nil {
		return nil, err
	}

	return videos, nil
}
