package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for report generation.
var (
	reportGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_generations_total",
		Help: "Total report generations by mode and outcome",
	}, []string{"mode", "outcome"})

	reportBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_batches_total",
		Help: "Total pages fetched by mode",
	}, []string{"mode"})

	reportRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_rows_total",
		Help: "Total aggregate rows produced by mode",
	}, []string{"mode"})

	reportFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_fetch_duration_seconds",
		Help:    "Duration of individual page fetches in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	reportGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_generation_duration_seconds",
		Help:    "End-to-end report generation duration in seconds by mode",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"mode"})
)

// Config holds generator configuration.
type Config struct {
	// BatchSize is the number of distinct items fetched per page.
	// Must be positive; DefaultConfig supplies DefaultBatchSize.
	BatchSize int

	// FetchTimeout bounds each individual page fetch. Zero disables the
	// per-fetch timeout; the store's own limits then apply.
	FetchTimeout time.Duration

	// Counter provides distinct item counts for batch estimation.
	// Optional; EstimateBatchCount fails without it.
	Counter ItemCounter

	// Progress receives per-page updates during streamed generation.
	// Optional.
	Progress ProgressSink
}

// DefaultConfig returns a safe default generator configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize: DefaultBatchSize,
	}
}

// Generator drives keyset-paginated report generation against a PageFetcher.
//
// Each generation is an independent session: the cursor lives on the stack
// of one call and nothing is shared between calls, so a single Generator is
// safe for concurrent use.
type Generator struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// New creates a report generator on top of the given page fetcher.
func New(fetcher PageFetcher, cfg Config) (*Generator, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}

	logger := log.With().Str("component", "report-generator").Logger()

	return &Generator{
		fetcher: fetcher,
		config:  cfg,
		logger:  logger,
	}, nil
}

// BatchSize returns the configured page size.
func (g *Generator) BatchSize() int {
	return g.config.BatchSize
}

// Generate produces the full report for (tenantID, groupID) by fetching
// pages of Config.BatchSize items until a short or empty page signals
// exhaustion. Rows are returned in ascending item id order.
//
// On any fetch failure the whole operation fails; the partial accumulation
// is discarded, never returned as a complete result.
func (g *Generator) Generate(ctx context.Context, tenantID int64, groupID string) ([]MetricAggregate, error) {
	if err := g.check(groupID); err != nil {
		return nil, err
	}

	start := time.Now()
	g.logger.Info().
		Int64("tenant_id", tenantID).
		Str("group_id", groupID).
		Int("batch_size", g.config.BatchSize).
		Msg("Starting report generation")

	var all []MetricAggregate
	lastSeenID := StartCursor
	batch := 0

	for {
		batch++

		page, err := g.fetchPage(ctx, tenantID, groupID, lastSeenID)
		if err != nil {
			reportGenerationsTotal.WithLabelValues("accumulate", "error").Inc()
			return nil, fmt.Errorf("fetch batch %d: %w", batch, err)
		}
		reportBatchesTotal.WithLabelValues("accumulate").Inc()

		if len(page) == 0 {
			g.logger.Debug().Int("batch", batch).Msg("Empty page - report complete")
			break
		}

		all = append(all, page...)
		reportRowsTotal.WithLabelValues("accumulate").Add(float64(len(page)))

		// Advance the cursor to the last item id of this page.
		lastSeenID = page[len(page)-1].ItemID

		g.logger.Debug().
			Int("batch", batch).
			Int("records", len(page)).
			Str("last_seen_id", lastSeenID).
			Msg("Batch accumulated")

		// A short page means the group is exhausted; skip the extra
		// round trip that would observe the empty page.
		if len(page) < g.config.BatchSize {
			break
		}
	}

	reportGenerationsTotal.WithLabelValues("accumulate", "success").Inc()
	reportGenerationDuration.WithLabelValues("accumulate").Observe(time.Since(start).Seconds())

	g.logger.Info().
		Int64("tenant_id", tenantID).
		Str("group_id", groupID).
		Int("batches", batch).
		Int("records", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Report generation complete")

	return all, nil
}

// GenerateStreamed runs the same loop as Generate but hands each non-empty
// page to handler instead of accumulating, so at most one page is held in
// memory at a time. Pages are delivered strictly in cursor order, never
// concurrently, never after termination was decided.
//
// A handler error aborts the report immediately: no further fetches are
// issued and the error is surfaced as a *HandlerError wrapping the cause.
// Returns the number of records delivered before completion or abort.
func (g *Generator) GenerateStreamed(ctx context.Context, tenantID int64, groupID string, handler PageHandler) (int64, error) {
	if handler == nil {
		return 0, fmt.Errorf("page handler is required")
	}
	if err := g.check(groupID); err != nil {
		return 0, err
	}

	start := time.Now()
	g.logger.Info().
		Int64("tenant_id", tenantID).
		Str("group_id", groupID).
		Int("batch_size", g.config.BatchSize).
		Msg("Starting streamed report")

	lastSeenID := StartCursor
	batch := 0
	var totalRecords int64

	for {
		batch++

		page, err := g.fetchPage(ctx, tenantID, groupID, lastSeenID)
		if err != nil {
			reportGenerationsTotal.WithLabelValues("stream", "error").Inc()
			return totalRecords, fmt.Errorf("fetch batch %d: %w", batch, err)
		}
		reportBatchesTotal.WithLabelValues("stream").Inc()

		if len(page) == 0 {
			break
		}

		if err := handler(page); err != nil {
			herr := &HandlerError{Batch: batch, Err: err}
			if errors.Is(err, ErrStop) {
				reportGenerationsTotal.WithLabelValues("stream", "cancelled").Inc()
				g.logger.Info().
					Int("batch", batch).
					Int64("records", totalRecords).
					Msg("Streamed report cancelled by handler")
			} else {
				reportGenerationsTotal.WithLabelValues("stream", "handler_error").Inc()
				g.logger.Warn().
					Err(err).
					Int("batch", batch).
					Msg("Page handler failed - aborting report")
			}
			return totalRecords, herr
		}

		totalRecords += int64(len(page))
		reportRowsTotal.WithLabelValues("stream").Add(float64(len(page)))
		lastSeenID = page[len(page)-1].ItemID

		if g.config.Progress != nil {
			g.config.Progress.Publish(ctx, Progress{
				TenantID: tenantID,
				GroupID:  groupID,
				Batch:    batch,
				Records:  totalRecords,
			})
		}

		g.logger.Debug().
			Int("batch", batch).
			Int("records", len(page)).
			Str("last_seen_id", lastSeenID).
			Msg("Batch streamed")

		if len(page) < g.config.BatchSize {
			break
		}
	}

	if g.config.Progress != nil {
		g.config.Progress.Publish(ctx, Progress{
			TenantID: tenantID,
			GroupID:  groupID,
			Batch:    batch,
			Records:  totalRecords,
			Done:     true,
		})
	}

	reportGenerationsTotal.WithLabelValues("stream", "success").Inc()
	reportGenerationDuration.WithLabelValues("stream").Observe(time.Since(start).Seconds())

	g.logger.Info().
		Int64("tenant_id", tenantID).
		Str("group_id", groupID).
		Int("batches", batch).
		Int64("records", totalRecords).
		Dur("duration", time.Since(start)).
		Msg("Streamed report complete")

	return totalRecords, nil
}

// EstimateBatchCount returns ceil(distinct items / batch size) for a group.
// Advisory only, for progress reporting: the real termination condition is
// always a short or empty page, and the count may be stale under
// concurrent writes.
func (g *Generator) EstimateBatchCount(ctx context.Context, groupID string) (int64, error) {
	if err := g.check(groupID); err != nil {
		return 0, err
	}
	if g.config.Counter == nil {
		return 0, fmt.Errorf("item counter is not configured")
	}

	count, err := g.config.Counter.ItemCount(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}

	batchSize := int64(g.config.BatchSize)
	return (count + batchSize - 1) / batchSize, nil
}

// check validates scoping and sizing before any fetch is attempted.
func (g *Generator) check(groupID string) error {
	if groupID == "" {
		return ErrMissingGroupID
	}
	if g.config.BatchSize <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidBatchSize, g.config.BatchSize)
	}
	return nil
}

// fetchPage performs one bounded fetch, applying the configured per-fetch
// timeout and recording its duration.
func (g *Generator) fetchPage(ctx context.Context, tenantID int64, groupID, lastSeenID string) ([]MetricAggregate, error) {
	if g.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	page, err := g.fetcher.FetchAggregates(ctx, tenantID, groupID, lastSeenID, g.config.BatchSize)
	reportFetchDuration.Observe(time.Since(start).Seconds())
	return page, err
}
