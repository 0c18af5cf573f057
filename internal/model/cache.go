package model

import "time"

// CacheEntry is the persisted snapshot of one resource.
type CacheEntry struct {
	Data          []Record  `json:"data"`
	FetchedAt     time.Time `json:"fetchedAt"`
	SchemaVersion string    `json:"schemaVersion"`
}

// Age returns how old the entry is relative to now.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}
