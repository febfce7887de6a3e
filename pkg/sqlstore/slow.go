package sqlstore

import (
	"context"
	"fmt"

	"github.com/pratik7038/OptimizationDemo/pkg/report"
)

// fetchAggregatesSlowSQL is the IN-subquery + OFFSET pattern this module
// exists to replace. The subquery is re-evaluated against the event
// table instead of being joined once, and OFFSET scans and discards rows,
// so cost grows with how deep into the group the page lies.
const fetchAggregatesSlowSQL = `
SELECT item_id, dimension_id,
       COUNT(CASE WHEN status = 1 THEN 1 END) AS passed,
       COUNT(CASE WHEN status = 0 THEN 1 END) AS failed,
       COUNT(CASE WHEN status = 2 THEN 1 END) AS error
FROM entity_event
WHERE tenant_id = ?
  AND item_id IN (
      SELECT DISTINCT item_id
      FROM entity_catalog
      WHERE group_id = ?
      ORDER BY item_id
      LIMIT ? OFFSET ?
  )
GROUP BY item_id, dimension_id
ORDER BY item_id, dimension_id
`

// FetchAggregatesSlow fetches one page using offset pagination.
//
// Deprecated: retained only for comparison and benchmarking against
// FetchAggregates. Do not use in production paths.
func (s *Store) FetchAggregatesSlow(ctx context.Context, tenantID int64, groupID string, offset, limit int) ([]report.MetricAggregate, error) {
	rows, err := s.db.QueryContext(ctx, fetchAggregatesSlowSQL, tenantID, groupID, limit, offset)
	if err != nil {
		return nil, &report.StoreError{Op: "fetch", Err: fmt.Errorf("query aggregates (offset): %w", err)}
	}
	defer rows.Close()

	page, err := scanAggregates(rows)
	if err != nil {
		return nil, &report.StoreError{Op: "fetch", Err: err}
	}
	return page, nil
}
