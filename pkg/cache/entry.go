package cache

import (
	"time"
)

// CountEntry is a cached distinct-item count for one group.
type CountEntry struct {
	// Count is the number of distinct items in the group at CachedAt.
	Count int64 `json:"count"`

	// CachedAt is when the count was read from the store.
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the entry becomes stale. Estimates are advisory, so
	// a slightly stale count is tolerated even under concurrent writes.
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the entry has expired.
func (e *CountEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CountEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
