package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pratik7038/OptimizationDemo/pkg/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for progress tracking.
var (
	progressUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_progress_updates_total",
		Help: "Total number of progress updates published",
	})

	progressErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_progress_errors_total",
		Help: "Total number of failed progress writes",
	})
)

// ErrNotFound is returned when no progress exists for a (tenant, group).
var ErrNotFound = errors.New("no progress recorded")

// Tracker persists report progress in Redis. It implements
// report.ProgressSink; a broken Redis degrades to log warnings and never
// fails the report it is observing.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger

	// Estimate is the advisory batch count stored with every update.
	// Optional; set it before starting the run.
	Estimate int64
}

// NewTracker creates a progress tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// Publish writes the current progress of a run to Redis.
func (t *Tracker) Publish(ctx context.Context, p report.Progress) {
	state := State{
		Batch:            p.Batch,
		Records:          p.Records,
		EstimatedBatches: t.Estimate,
		Done:             p.Done,
		UpdatedAt:        time.Now(),
	}

	data, err := json.Marshal(state)
	if err != nil {
		progressErrorsTotal.Inc()
		t.logger.Warn().Err(err).Msg("Failed to marshal progress state")
		return
	}

	key := Key(p.TenantID, p.GroupID)
	if err := t.redis.Set(ctx, key, data, StateTTL).Err(); err != nil {
		progressErrorsTotal.Inc()
		t.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("Failed to write progress state")
		return
	}

	progressUpdatesTotal.Inc()
	t.logger.Debug().
		Str("key", key).
		Int("batch", p.Batch).
		Int64("records", p.Records).
		Bool("done", p.Done).
		Msg("Progress published")
}

// GetState retrieves the recorded progress for a (tenant, group) run.
// Returns ErrNotFound when no run has published yet or the record expired.
func (t *Tracker) GetState(ctx context.Context, tenantID int64, groupID string) (*State, error) {
	data, err := t.redis.Get(ctx, Key(tenantID, groupID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get progress state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal progress state: %w", err)
	}
	return &state, nil
}
