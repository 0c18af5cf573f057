package syncer

import (
	"time"

	"g2-yoyodex/internal/model"
)

// State is the lifecycle position of one resource within a refresh.
type State string

const (
	StateEmpty      State = "empty"
	StateCacheHit   State = "cache_hit"
	StateCacheMiss  State = "cache_miss"
	StateRefreshing State = "refreshing"
	StateUnchanged  State = "unchanged"
	StateUpdated    State = "updated"
	StateSettled    State = "settled"
)

// ResourceStatus is a snapshot of one resource's sync state.
type ResourceStatus struct {
	Resource    model.Resource `json:"resource"`
	State       State          `json:"state"`
	HasData     bool           `json:"has_data"`
	Records     int            `json:"records"`
	FromCache   bool           `json:"from_cache"`
	LastAttempt time.Time      `json:"last_attempt,omitempty"`
	LastSuccess time.Time      `json:"last_success,omitempty"`
	LastUpdate  time.Time      `json:"last_update,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	LastChanges string         `json:"last_changes,omitempty"`
	Refreshes   int            `json:"refreshes"`
}

// Status is a snapshot of the whole engine.
type Status struct {
	Resources  []ResourceStatus `json:"resources"`
	LoadFailed bool             `json:"load_failed"`
	Refreshing bool             `json:"refreshing"`
}

// Resource returns the status of r.
func (s Status) Resource(r model.Resource) (ResourceStatus, bool) {
	for _, rs := range s.Resources {
		if rs.Resource == r {
			return rs, true
		}
	}
	return ResourceStatus{}, false
}
