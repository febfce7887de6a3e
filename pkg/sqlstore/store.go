// Package sqlstore implements the report page fetcher on top of a SQLite
// event store via database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pratik7038/OptimizationDemo/pkg/report"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Event status categories in entity_event.status.
const (
	StatusFailed = 0
	StatusPassed = 1
	StatusError  = 2
)

// fetchAggregatesSQL joins the event table against a bounded, keyed, limited
// derived table of item ids. The derived table is materialized once and the
// join runs over the (tenant_id, item_id) index, so fetch cost does not
// depend on how far the cursor has advanced.
const fetchAggregatesSQL = `
SELECT e.item_id, e.dimension_id,
       COUNT(CASE WHEN e.status = 1 THEN 1 END) AS passed,
       COUNT(CASE WHEN e.status = 0 THEN 1 END) AS failed,
       COUNT(CASE WHEN e.status = 2 THEN 1 END) AS error
FROM entity_event e
JOIN (
    SELECT item_id
    FROM entity_catalog
    WHERE group_id = ?
      AND item_id > ?
    GROUP BY item_id
    ORDER BY item_id
    LIMIT ?
) c ON c.item_id = e.item_id
WHERE e.tenant_id = ?
GROUP BY e.item_id, e.dimension_id
ORDER BY e.item_id, e.dimension_id
`

const itemCountSQL = `
SELECT COUNT(DISTINCT item_id)
FROM entity_catalog
WHERE group_id = ?
`

// Store fetches aggregate pages from a SQLite database. It implements
// report.PageFetcher and report.ItemCounter.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens the SQLite database at path. The schema (entity_catalog,
// entity_event and their indexes) is expected to exist already.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// modernc.org/sqlite only honors the _pragma=name(value) DSN form.
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return NewStore(db), nil
}

// NewStore wraps an existing database handle, e.g. an in-memory database
// in tests. Close closes the handle either way.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		logger: log.With().Str("component", "sqlstore").Logger(),
	}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FetchAggregates returns the aggregates for up to limit distinct items of
// groupID with item id strictly greater than lastSeenID, ascending by item
// id. Counting is conditional over the status column, one query per page.
func (s *Store) FetchAggregates(ctx context.Context, tenantID int64, groupID, lastSeenID string, limit int) ([]report.MetricAggregate, error) {
	rows, err := s.db.QueryContext(ctx, fetchAggregatesSQL, groupID, lastSeenID, limit, tenantID)
	if err != nil {
		return nil, &report.StoreError{Op: "fetch", Err: fmt.Errorf("query aggregates: %w", err)}
	}
	defer rows.Close()

	page, err := scanAggregates(rows)
	if err != nil {
		return nil, &report.StoreError{Op: "fetch", Err: err}
	}

	s.logger.Debug().
		Str("group_id", groupID).
		Str("last_seen_id", lastSeenID).
		Int("limit", limit).
		Int("rows", len(page)).
		Msg("Fetched aggregate page")

	return page, nil
}

// ItemCount returns the number of distinct items catalogued for a group.
func (s *Store) ItemCount(ctx context.Context, groupID string) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, itemCountSQL, groupID).Scan(&count); err != nil {
		return 0, &report.StoreError{Op: "count", Err: fmt.Errorf("count items: %w", err)}
	}
	return count, nil
}

// scanAggregates drains a result set into aggregate rows. Any scan or
// iteration error invalidates the whole page.
func scanAggregates(rows *sql.Rows) ([]report.MetricAggregate, error) {
	var page []report.MetricAggregate
	for rows.Next() {
		var row report.MetricAggregate
		if err := rows.Scan(&row.ItemID, &row.DimensionID, &row.Passed, &row.Failed, &row.Error); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		page = append(page, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}
	return page, nil
}
