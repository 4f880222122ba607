package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"viral_daily/internal/domain"
)

// DeliveryStore persists delivery runs and per-subscriber attempts. Run
// counters are derived from the attempts, never stored.
type DeliveryStore struct {
	db *sqlx.DB
}

func NewDeliveryStore(db *sqlx.DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

func (s *DeliveryStore) CreateRun(ctx context.Context, run *domain.DeliveryRun) error {
	query := `
		INSERT INTO delivery_runs (id, started_at, digest_size, scheduled)
		VALUES ($1, $2, $3, $4)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		run.ID,
		run.StartedAt,
		run.DigestSize,
		run.Scheduled,
	)
	return err
}

func (s *DeliveryStore) RecordAttempt(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	query := `
		INSERT INTO delivery_attempts (run_id, subscription_id, status, error, attempted_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		attempt.RunID,
		attempt.SubscriptionID,
		attempt.Status,
		attempt.Error,
		attempt.AttemptedAt,
	)
	return err
}

func (s *DeliveryStore) GetRun(ctx context.Context, id string) (*domain.DeliveryRun, error) {
	query := `
		SELECT r.id, r.started_at, r.digest_size, r.scheduled,
			COUNT(a.id) FILTER (WHERE a.status = 'delivered') AS delivered,
			COUNT(a.id) FILTER (WHERE a.status = 'failed') AS failed
		FROM delivery_runs r
		LEFT JOIN delivery_attempts a ON a.run_id = r.id
		WHERE r.id = $1
		GROUP BY r.id`

	var run domain.DeliveryRun
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &run, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
