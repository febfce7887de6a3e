// Package testutil provides testing fixtures for the report engine.
package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"
)

// schema mirrors the external store the page fetcher queries against: an
// item catalog keyed by group and item, and an event table keyed by
// tenant/item/dimension/status.
const schema = `
CREATE TABLE entity_catalog (
    group_id TEXT NOT NULL,
    item_id  TEXT NOT NULL,
    PRIMARY KEY (group_id, item_id)
);

CREATE TABLE entity_event (
    tenant_id    INTEGER NOT NULL,
    item_id      TEXT NOT NULL,
    dimension_id TEXT NOT NULL,
    status       INTEGER NOT NULL
);

CREATE INDEX idx_entity_event_tenant_item ON entity_event (tenant_id, item_id);
`

// OpenDB opens a fresh in-memory SQLite database with the report schema
// applied. The handle is pinned to a single connection so the in-memory
// database survives connection reuse, and is closed on test cleanup.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// SeedGroup catalogues items I-001..I-<items> under groupID and inserts
// deterministic events for each (item, dimension) pair and tenant. Counts
// vary per pair but every pair gets at least one passed event, so every
// pair appears in the aggregates.
func SeedGroup(t testing.TB, db *sql.DB, groupID string, tenantID int64, items, dimensions int) {
	t.Helper()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin seed tx: %v", err)
	}
	defer tx.Rollback()

	catalog, err := tx.Prepare("INSERT INTO entity_catalog (group_id, item_id) VALUES (?, ?)")
	if err != nil {
		t.Fatalf("prepare catalog insert: %v", err)
	}
	defer catalog.Close()

	event, err := tx.Prepare("INSERT INTO entity_event (tenant_id, item_id, dimension_id, status) VALUES (?, ?, ?, ?)")
	if err != nil {
		t.Fatalf("prepare event insert: %v", err)
	}
	defer event.Close()

	for i := 1; i <= items; i++ {
		itemID := ItemID(i)
		if _, err := catalog.Exec(groupID, itemID); err != nil {
			t.Fatalf("insert catalog row: %v", err)
		}

		for d := 1; d <= dimensions; d++ {
			dimensionID := fmt.Sprintf("D-%02d", d)
			passed, failed, errored := SeedCounts(i, d)

			for n := int64(0); n < passed; n++ {
				mustExec(t, event, tenantID, itemID, dimensionID, 1)
			}
			for n := int64(0); n < failed; n++ {
				mustExec(t, event, tenantID, itemID, dimensionID, 0)
			}
			for n := int64(0); n < errored; n++ {
				mustExec(t, event, tenantID, itemID, dimensionID, 2)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit seed tx: %v", err)
	}
}

// ItemID formats the nth seeded item id (I-001, I-002, ...).
func ItemID(n int) string {
	return fmt.Sprintf("I-%03d", n)
}

// SeedCounts returns the deterministic (passed, failed, error) event counts
// SeedGroup inserts for item i, dimension d.
func SeedCounts(i, d int) (passed, failed, errored int64) {
	passed = int64(1 + (i+d)%3)
	failed = int64(i % 2)
	errored = int64((i + d) % 2)
	return passed, failed, errored
}

func mustExec(t testing.TB, stmt *sql.Stmt, args ...any) {
	t.Helper()
	if _, err := stmt.Exec(args...); err != nil {
		t.Fatalf("insert event row: %v", err)
	}
}
