// Package progress tracks the state of long-running streamed report
// generations in Redis, so callers (UIs, operators) can poll how far a
// report has advanced without holding a connection to producers.
package progress

import (
	"fmt"
	"time"
)

// keyPrefix scopes all progress keys in Redis.
const keyPrefix = "report:progress"

// StateTTL is how long a progress record survives after its last update.
// Abandoned runs (crashed producers) expire instead of lingering forever.
const StateTTL = time.Hour

// State is the persisted progress of one report generation, shared via
// Redis between the producing process and any observers.
type State struct {
	// Batch is the number of the most recently delivered page.
	Batch int `json:"batch"`

	// Records is the total number of aggregate rows delivered so far.
	Records int64 `json:"records"`

	// EstimatedBatches is the advisory total from the count estimator.
	// Zero when no estimate was taken.
	EstimatedBatches int64 `json:"estimated_batches"`

	// Done marks a completed generation.
	Done bool `json:"done"`

	// UpdatedAt is when this state was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the Redis key for one (tenant, group) report run.
func Key(tenantID int64, groupID string) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, tenantID, groupID)
}
