package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"viral_daily/internal/domain"
)

// ListActiveLimit caps the number of subscriptions a delivery run reads.
const ListActiveLimit = 1000

type subscriptionRow struct {
	ID              string         `db:"id"`
	Email           *string        `db:"email"`
	TelegramID      *string        `db:"telegram_id"`
	WhatsAppNumber  *string        `db:"whatsapp_number"`
	DeliveryMethods pq.StringArray `db:"delivery_methods"`
	Active          bool           `db:"active"`
	CreatedAt       time.Time      `db:"created_at"`
	LastDelivery    *time.Time     `db:"last_delivery"`
}

func (r *subscriptionRow) toDomain() domain.Subscription {
	methods := make([]domain.DeliveryMethod, 0, len(r.DeliveryMethods))
	for _, m := range r.DeliveryMethods {
		methods = append(methods, domain.DeliveryMethod(m))
	}
	return domain.Subscription{
		ID:              r.ID,
		Email:           r.Email,
		TelegramID:      r.TelegramID,
		WhatsAppNumber:  r.WhatsAppNumber,
		DeliveryMethods: methods,
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
		LastDelivery:    r.LastDelivery,
	}
}

type SubscriptionStore struct {
	db *sqlx.DB
}

func NewSubscriptionStore(db *sqlx.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, email, telegram_id, whatsapp_number, delivery_methods,
			active, created_at, last_delivery
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	methods := make(pq.StringArray, 0, len(sub.DeliveryMethods))
	for _, m := range sub.DeliveryMethods {
		methods = append(methods, string(m))
	}

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		sub.ID,
		sub.Email,
		sub.TelegramID,
		sub.WhatsAppNumber,
		methods,
		sub.Active,
		sub.CreatedAt,
		sub.LastDelivery,
	)
	return err
}

func (s *SubscriptionStore) ListActive(ctx context.Context) ([]domain.Subscription, error) {
	query := `
		SELECT id, email, telegram_id, whatsapp_number, delivery_methods,
			active, created_at, last_delivery
		FROM subscriptions
		WHERE active = TRUE
		ORDER BY created_at
		LIMIT $1`

	var rows []subscriptionRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, ListActiveLimit); err != nil {
		return nil, err
	}

	subs := make([]domain.Subscription, 0, len(rows))
	for i := range rows {
		subs = append(subs, rows[i].toDomain())
	}
	return subs, nil
}

// UpdateLastDelivery returns domain.ErrNotFound when no subscription has id.
func (s *SubscriptionStore) UpdateLastDelivery(ctx context.Context, id string, at time.Time) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE subscriptions SET last_delivery = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
