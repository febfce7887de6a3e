// Command reportd serves compliance report generation over HTTP, backed by
// the keyset-paginated report engine.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/pratik7038/OptimizationDemo/pkg/cache"
	"github.com/pratik7038/OptimizationDemo/pkg/logging"
	"github.com/pratik7038/OptimizationDemo/pkg/progress"
	"github.com/pratik7038/OptimizationDemo/pkg/report"
	"github.com/pratik7038/OptimizationDemo/pkg/sqlstore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Configuration from environment
	dbPath := getEnv("DB_PATH", "reports.db")
	redisURL := getEnv("REDIS_URL", "")
	port := getEnv("PORT", "8080")
	logLevel := getEnv("LOG_LEVEL", "info")
	defaultBatchSize := getEnvInt("DEFAULT_BATCH_SIZE", report.DefaultBatchSize)

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	})

	store, err := sqlstore.Open(dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db_path", dbPath).Msg("Failed to open store")
	}
	defer store.Close()
	logger.Info().Str("db_path", dbPath).Msg("Store opened")

	srv := &server{
		store:            store,
		counter:          store,
		defaultBatchSize: defaultBatchSize,
		logger:           logger,
	}

	// Redis is optional: without it estimates hit the store directly and
	// progress polling is unavailable.
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		srv.counter = cache.NewCachedCounter(store, cache.NewManager(redisClient, 0))
		srv.tracker = progress.NewTracker(redisClient, logging.NewLogger("progress"))
		logger.Info().Str("redis_url", redisURL).Msg("Connected to Redis")
	}

	addr := ":" + port
	logger.Info().Str("addr", addr).Msg("Starting report server")

	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// pageStore is the slice of the store the handlers need.
type pageStore interface {
	report.PageFetcher
	FetchAggregatesSlow(ctx context.Context, tenantID int64, groupID string, offset, limit int) ([]report.MetricAggregate, error)
}

// server holds the wired dependencies behind the HTTP handlers.
type server struct {
	store            pageStore
	counter          report.ItemCounter
	tracker          *progress.Tracker
	defaultBatchSize int
	logger           zerolog.Logger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/performance/batch/optimized", s.handleBatchOptimized)
	mux.HandleFunc("/performance/batch/slow", s.handleBatchSlow)
	mux.HandleFunc("/performance/report/optimized", s.handleReport)
	mux.HandleFunc("/performance/report/stream", s.handleReportStream)
	mux.HandleFunc("/performance/estimate", s.handleEstimate)
	mux.HandleFunc("/performance/progress", s.handleProgress)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// newGenerator builds a generator for one request's batch size.
func (s *server) newGenerator(batchSize int) (*report.Generator, error) {
	cfg := report.Config{
		BatchSize: batchSize,
		Counter:   s.counter,
	}
	if s.tracker != nil {
		cfg.Progress = s.tracker
	}
	return report.New(s.store, cfg)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// handleBatchOptimized serves one keyset-paginated page.
func (s *server) handleBatchOptimized(w http.ResponseWriter, r *http.Request) {
	tenantID, groupID, ok := s.scope(w, r)
	if !ok {
		return
	}
	lastSeenID := r.URL.Query().Get("lastSeenId")
	limit, ok := s.intParam(w, r, "limit", s.defaultBatchSize)
	if !ok {
		return
	}
	if limit <= 0 {
		http.Error(w, "limit must be positive", http.StatusBadRequest)
		return
	}

	page, err := s.store.FetchAggregates(r.Context(), tenantID, groupID, lastSeenID, limit)
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	s.writeJSON(w, toRows(page))
}

// handleBatchSlow serves one offset-paginated page. Comparison only.
func (s *server) handleBatchSlow(w http.ResponseWriter, r *http.Request) {
	tenantID, groupID, ok := s.scope(w, r)
	if !ok {
		return
	}
	offset, ok := s.intParam(w, r, "offset", 0)
	if !ok {
		return
	}
	limit, ok := s.intParam(w, r, "limit", s.defaultBatchSize)
	if !ok {
		return
	}
	if offset < 0 || limit <= 0 {
		http.Error(w, "offset must be non-negative and limit positive", http.StatusBadRequest)
		return
	}

	page, err := s.store.FetchAggregatesSlow(r.Context(), tenantID, groupID, offset, limit)
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	s.writeJSON(w, toRows(page))
}

// handleReport runs a full accumulating generation.
func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	tenantID, groupID, ok := s.scope(w, r)
	if !ok {
		return
	}
	batchSize, ok := s.intParam(w, r, "batchSize", s.defaultBatchSize)
	if !ok {
		return
	}

	gen, err := s.newGenerator(batchSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rows, err := gen.Generate(r.Context(), tenantID, groupID)
	if err != nil {
		s.generationFailure(w, r, err)
		return
	}
	s.writeJSON(w, toRows(rows))
}

// handleReportStream streams a full generation as CSV, one page at a time.
func (s *server) handleReportStream(w http.ResponseWriter, r *http.Request) {
	tenantID, groupID, ok := s.scope(w, r)
	if !ok {
		return
	}
	batchSize, ok := s.intParam(w, r, "batchSize", s.defaultBatchSize)
	if !ok {
		return
	}
	if batchSize <= 0 {
		http.Error(w, "batchSize must be positive", http.StatusBadRequest)
		return
	}

	gen, err := s.newGenerator(batchSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report-"+groupID+".csv"))

	// The csv.Writer buffers until the first page flush, so nothing hits
	// the wire (headers included) before the first page succeeds.
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"item_id", "dimension_id", "passed", "failed", "error", "pass_rate", "total"}); err != nil {
		return
	}

	flushed := false
	total, err := gen.GenerateStreamed(r.Context(), tenantID, groupID, func(page []report.MetricAggregate) error {
		for _, row := range page {
			record := []string{
				row.ItemID,
				row.DimensionID,
				strconv.FormatInt(row.Passed, 10),
				strconv.FormatInt(row.Failed, 10),
				strconv.FormatInt(row.Error, 10),
				strconv.FormatFloat(row.PassRate(), 'f', 1, 64),
				strconv.FormatInt(row.Total(), 10),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		flushed = true
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("tenant_id", tenantID).
			Str("group_id", groupID).
			Int64("records", total).
			Msg("Streamed report failed mid-flight")
		if !flushed {
			// Nothing committed yet; a real status line can still go out.
			w.Header().Del("Content-Disposition")
			s.generationFailure(w, r, err)
			return
		}
		// Pages already reached the client. Abort the connection so the
		// truncated stream surfaces as a transport error, never as a
		// clean EOF that looks like a complete report.
		panic(http.ErrAbortHandler)
	}
	cw.Flush()
}

// handleEstimate serves the advisory batch count for a group.
func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("groupId")
	if groupID == "" {
		http.Error(w, "groupId is required", http.StatusBadRequest)
		return
	}
	batchSize, ok := s.intParam(w, r, "batchSize", s.defaultBatchSize)
	if !ok {
		return
	}

	gen, err := s.newGenerator(batchSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	batches, err := gen.EstimateBatchCount(r.Context(), groupID)
	if err != nil {
		s.generationFailure(w, r, err)
		return
	}

	s.writeJSON(w, map[string]any{
		"groupId":          groupID,
		"batchSize":        batchSize,
		"estimatedBatches": batches,
	})
}

// handleProgress serves the recorded progress of a streamed run.
func (s *server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		http.Error(w, "progress tracking requires Redis", http.StatusNotImplemented)
		return
	}
	tenantID, groupID, ok := s.scope(w, r)
	if !ok {
		return
	}

	state, err := s.tracker.GetState(r.Context(), tenantID, groupID)
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			http.Error(w, "no progress recorded", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, state)
}

// scope parses the required tenantId and groupId parameters.
func (s *server) scope(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	q := r.URL.Query()

	tenantRaw := q.Get("tenantId")
	if tenantRaw == "" {
		http.Error(w, "tenantId is required", http.StatusBadRequest)
		return 0, "", false
	}
	tenantID, err := strconv.ParseInt(tenantRaw, 10, 64)
	if err != nil {
		http.Error(w, "tenantId must be an integer", http.StatusBadRequest)
		return 0, "", false
	}

	groupID := q.Get("groupId")
	if groupID == "" {
		http.Error(w, "groupId is required", http.StatusBadRequest)
		return 0, "", false
	}

	return tenantID, groupID, true
}

// intParam parses an optional integer query parameter.
func (s *server) intParam(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return value, true
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

// storeFailure maps a raw store error onto the HTTP surface.
func (s *server) storeFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Store query failed")
	http.Error(w, "store query failed", http.StatusBadGateway)
}

// generationFailure maps generator errors: configuration problems are the
// caller's fault, everything else is server-side.
func (s *server) generationFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, report.ErrInvalidBatchSize) || errors.Is(err, report.ErrMissingGroupID) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var se *report.StoreError
	if errors.As(err, &se) {
		s.storeFailure(w, r, err)
		return
	}
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Report generation failed")
	http.Error(w, "report generation failed", http.StatusInternalServerError)
}

// aggregateRow is the wire shape of one aggregate, including derived values.
type aggregateRow struct {
	report.MetricAggregate
	PassRate float64 `json:"passRate"`
	Total    int64   `json:"total"`
}

func toRows(page []report.MetricAggregate) []aggregateRow {
	rows := make([]aggregateRow, 0, len(page))
	for _, row := range page {
		rows = append(rows, aggregateRow{
			MetricAggregate: row,
			PassRate:        row.PassRate(),
			Total:           row.Total(),
		})
	}
	return rows
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
