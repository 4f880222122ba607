package domain

import "time"

// SourceState tracks fetch activity per platform.
type SourceState struct {
	Platform      Platform  `db:"platform" json:"platform"`
	LastFetchedAt time.Time `db:"last_fetched_at" json:"last_fetched_at"`
	LastCount     int       `db:"last_count" json:"last_count"`
	TotalFetched  int64     `db:"total_fetched" json:"total_fetched"`
}

// FetchStats holds statistics about one fetch-and-store pass.
type FetchStats struct {
	Fetched  int
	Stored   int
	Errors   int
	Duration time.Duration
}
