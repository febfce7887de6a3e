// Package report implements batch generation of aggregated metric reports
// using keyset (cursor) pagination against a backing store.
package report

import (
	"context"
)

// StartCursor is the item id cursor that orders before every valid item id.
// Passing it to a PageFetcher selects the first page of a group.
const StartCursor = ""

// DefaultBatchSize is the number of items fetched per page when no explicit
// batch size is configured.
//
// Too small: excessive round trips to the store.
// Too large: memory pressure and longer individual query times.
const DefaultBatchSize = 1000

// MetricAggregate is one aggregated result row: evaluation counts for a
// single (item, dimension) combination within a tenant.
type MetricAggregate struct {
	ItemID      string `json:"itemId"`
	DimensionID string `json:"dimensionId"`
	Passed      int64  `json:"passed"`
	Failed      int64  `json:"failed"`
	Error       int64  `json:"error"`
}

// PassRate returns the pass percentage over passed+failed evaluations.
// Error rows do not count toward the denominator. Returns 0.0 when nothing
// was evaluated, never NaN.
func (m MetricAggregate) PassRate() float64 {
	evaluated := m.Passed + m.Failed
	if evaluated == 0 {
		return 0.0
	}
	return float64(m.Passed) / float64(evaluated) * 100.0
}

// Total returns the total number of rows behind this aggregate,
// including errors.
func (m MetricAggregate) Total() int64 {
	return m.Passed + m.Failed + m.Error
}

// PageFetcher is the interface a backing store must implement for
// single-page fetching.
//
// FetchAggregates returns the aggregates for up to limit distinct items of
// groupID whose item id is strictly greater than lastSeenID, ordered
// ascending by item id. A page may be shorter than limit, or empty, when
// the group is exhausted. Implementations must either return the complete
// page or an error, never a silently truncated one.
type PageFetcher interface {
	FetchAggregates(ctx context.Context, tenantID int64, groupID, lastSeenID string, limit int) ([]MetricAggregate, error)
}

// ItemCounter reports the number of distinct items in a group. Used for
// batch count estimation only; the count may be stale relative to
// concurrent writes.
type ItemCounter interface {
	ItemCount(ctx context.Context, groupID string) (int64, error)
}

// PageHandler consumes one non-empty page during streamed generation.
// Returning an error aborts the report; return ErrStop to cancel without
// signalling a failure.
type PageHandler func(page []MetricAggregate) error

// Progress describes the state of one running report generation.
type Progress struct {
	TenantID int64
	GroupID  string
	Batch    int
	Records  int64
	Done     bool
}

// ProgressSink receives progress updates from streamed generation, once per
// delivered page and once on completion. Publish must not block the
// generation loop for long; sinks handle their own failures.
type ProgressSink interface {
	Publish(ctx context.Context, p Progress)
}
