package domain

import "time"

// SyncStats holds statistics about a sync cycle.
type SyncStats struct {
	Since     int64
	Fetched   int
	Committed int
	Skipped   int
	Errors    int
	Notified  int
	Duration  time.Duration
}
