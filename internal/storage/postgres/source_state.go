package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"viral_daily/internal/domain"
)

type SourceStateStore struct {
	db *sqlx.DB
}

func NewSourceStateStore(db *sqlx.DB) *SourceStateStore {
	return &SourceStateStore{db: db}
}

// Record stores the latest fetch of a platform and adds count to its
// running total.
func (s *SourceStateStore) Record(ctx context.Context, platform domain.Platform, count int, at time.Time) error {
	query := `
		INSERT INTO source_state (platform, last_fetched_at, last_count, total_fetched)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (platform) DO UPDATE SET
			last_fetched_at = EXCLUDED.last_fetched_at,
			last_count = EXCLUDED.last_count,
			total_fetched = source_state.total_fetched + EXCLUDED.total_fetched`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		platform,
		at,
		count,
		int64(count),
	)
	return err
}

func (s *SourceStateStore) List(ctx context.Context) ([]domain.SourceState, error) {
	query := `
		SELECT platform, last_fetched_at, last_count, total_fetched
		FROM source_state
		ORDER BY platform`

	states := make([]domain.SourceState, 0)
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &states, query); err != nil {
		return nil, err
	}
	return states, nil
}
