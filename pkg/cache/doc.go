// Package cache provides Redis-backed caching of distinct-item counts for
// batch count estimation.
//
// Counting distinct items in a large catalog is a full index scan, and the
// result only feeds the advisory batch estimate shown to users, so it is a
// natural caching target: entries carry a TTL and staleness is acceptable
// by contract (the generator's real termination condition is always a short
// or empty page, never the estimate).
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient, 5*time.Minute)
//
//	entry, err := manager.Get(ctx, "G001")
//	if err == cache.ErrCacheMiss {
//		// Cache miss - count against the store
//	}
//
// # Decorating a counter
//
// The usual wiring wraps the store's counter so estimation callers never
// touch the cache directly:
//
//	counter := cache.NewCachedCounter(store, manager)
//	gen, err := report.New(store, report.Config{
//		BatchSize: 1000,
//		Counter:   counter,
//	})
//
// Cache failures degrade to the underlying counter: a broken Redis makes
// estimation slower, never wrong and never unavailable.
//
// # Metrics
//
//   - report_count_cache_hits_total - Cache hits
//   - report_count_cache_misses_total - Cache misses
//   - report_count_cache_errors_total{operation} - Cache operation errors
package cache
