package cache

import (
	"context"
	"errors"

	"github.com/pratik7038/OptimizationDemo/pkg/report"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CachedCounter decorates a report.ItemCounter with the Redis count cache.
// Cache failures degrade to the underlying counter; a broken Redis never
// breaks estimation, only makes it slower.
type CachedCounter struct {
	source  report.ItemCounter
	manager *Manager
	logger  zerolog.Logger
}

// NewCachedCounter wraps source with the given cache manager.
func NewCachedCounter(source report.ItemCounter, manager *Manager) *CachedCounter {
	if source == nil {
		panic("source counter cannot be nil")
	}
	if manager == nil {
		panic("cache manager cannot be nil")
	}
	return &CachedCounter{
		source:  source,
		manager: manager,
		logger:  log.With().Str("component", "count-cache").Logger(),
	}
}

// ItemCount returns the cached count for a group, falling back to the
// source counter and refreshing the cache on a miss.
func (c *CachedCounter) ItemCount(ctx context.Context, groupID string) (int64, error) {
	entry, err := c.manager.Get(ctx, groupID)
	if err == nil {
		c.logger.Debug().
			Str("group_id", groupID).
			Int64("count", entry.Count).
			Dur("ttl", entry.TTL()).
			Msg("Count cache hit")
		return entry.Count, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("group_id", groupID).Msg("Count cache get failed")
	}

	count, err := c.source.ItemCount(ctx, groupID)
	if err != nil {
		return 0, err
	}

	if err := c.manager.Set(ctx, groupID, count); err != nil {
		c.logger.Warn().Err(err).Str("group_id", groupID).Msg("Count cache set failed")
	}

	return count, nil
}
