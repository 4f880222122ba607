package domain

import "time"

type AttemptStatus string

const (
	AttemptDelivered AttemptStatus = "delivered"
	AttemptFailed    AttemptStatus = "failed"
)

// DeliveryRun is one scheduled digest fan-out. Scheduled is the number of
// subscribers a task was queued for, not the number successfully reached.
type DeliveryRun struct {
	ID         string    `db:"id" json:"id"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	DigestSize int       `db:"digest_size" json:"digest_size"`
	Scheduled  int       `db:"scheduled" json:"scheduled"`
	Delivered  int       `db:"delivered" json:"delivered"`
	Failed     int       `db:"failed" json:"failed"`
}

// Pending is the number of queued tasks with no recorded outcome yet.
func (r *DeliveryRun) Pending() int {
	p := r.Scheduled - r.Delivered - r.Failed
	if p < 0 {
		return 0
	}
	return p
}

type DeliveryAttempt struct {
	RunID          string        `db:"run_id"`
	SubscriptionID string        `db:"subscription_id"`
	Status         AttemptStatus `db:"status"`
	Error          *string       `db:"error"`
	AttemptedAt    time.Time     `db:"attempted_at"`
}
