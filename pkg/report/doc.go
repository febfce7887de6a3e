// Package report drives keyset-paginated batch generation of aggregated
// metric reports.
//
// Offset pagination degrades linearly as the offset grows because the store
// scans and discards rows up to the offset. Keyset pagination instead
// filters on "item_id > lastSeenID" and seeks via the index, so fetching
// page 500 costs the same as fetching page 1. The generator tracks the
// cursor across pages and terminates on the first short or empty page.
//
// Example usage:
//
//	gen, err := report.New(store, report.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	rows, err := gen.Generate(ctx, 1001, "G001")
//
// For large groups, stream pages instead of accumulating:
//
//	total, err := gen.GenerateStreamed(ctx, 1001, "G001", func(page []report.MetricAggregate) error {
//		return sink.WritePage(page)
//	})
//
// The generator:
//   - Fetches pages strictly sequentially (each cursor depends on the
//     previous page, so there is no pipelining opportunity)
//   - Holds at most one page in memory in streamed mode
//   - Aborts on the first store or handler failure, never returning a
//     silently truncated result
package report
