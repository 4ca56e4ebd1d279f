package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dshills/flowdex/internal/storage"
	"github.com/dshills/flowdex/pkg/types"
)

// Defaults applied when Config fields are zero.
const (
	DefaultCacheSize = 1000
	DefaultCacheTTL  = 5 * time.Minute
	DefaultTimeout   = 5 * time.Second

	// Queries slower than this are counted and logged at Warn.
	slowQueryThreshold = time.Second
)

// Config contains configuration for the searcher
type Config struct {
	CacheSize int           // LRU entry limit (default 1000)
	CacheTTL  time.Duration // cache entry lifetime (default 5m)
	Timeout   time.Duration // per-query execution budget (default 5s)
}

// PerformanceStats reports accumulated query timings
type PerformanceStats struct {
	TotalQueries         int     `json:"total_queries"`
	AverageQueryTimeMs   float64 `json:"average_query_time_ms"`
	SlowQueries          int     `json:"slow_queries"`
	TotalExecutionTimeMs float64 `json:"total_execution_time_ms"`
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *types.SearchResponse
	expiresAt time.Time
}

// Searcher answers search, detail, and stats queries against the index store
type Searcher struct {
	store    storage.Store
	logger   *zap.Logger
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
	cacheTTL time.Duration
	timeout  time.Duration

	perfMu    sync.Mutex
	queries   int
	slow      int
	totalTime time.Duration
}

// New creates a new Searcher instance
func New(store storage.Store, logger *zap.Logger, config *Config) *Searcher {
	cacheSize := DefaultCacheSize
	cacheTTL := DefaultCacheTTL
	timeout := DefaultTimeout
	if config != nil {
		if config.CacheSize > 0 {
			cacheSize = config.CacheSize
		}
		if config.CacheTTL > 0 {
			cacheTTL = config.CacheTTL
		}
		if config.Timeout > 0 {
			timeout = config.Timeout
		}
	}

	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		store:    store,
		logger:   logger,
		cache:    cache,
		cacheTTL: cacheTTL,
		timeout:  timeout,
	}
}

// Search validates and executes one search request. A request that exceeds
// the configured budget is abandoned and reported as a recoverable error.
func (s *Searcher) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	start := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := requestKey(req)
	if cached := s.checkCache(key); cached != nil {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, total, err := s.store.Search(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search exceeded %s budget: %w", s.timeout, err)
		}
		return nil, err
	}

	response := &types.SearchResponse{
		Workflows: records,
		Total:     total,
		Page:      req.Page,
		PerPage:   req.PerPage,
		Pages:     pageCount(total, req.PerPage),
		Query:     req.Query,
	}

	s.trackQuery("search", time.Since(start))
	s.storeInCache(key, response)

	return copyResponse(response), nil
}

// Get returns one record by filename. Filenames carrying path separators or
// traversal segments are rejected before touching storage.
func (s *Searcher) Get(ctx context.Context, filename string) (*types.WorkflowRecord, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record, err := s.store.Get(ctx, filename)
	if err != nil {
		return nil, err
	}
	s.trackQuery("get", time.Since(start))
	return record, nil
}

// Stats aggregates over the whole index
func (s *Searcher) Stats(ctx context.Context) (*types.StatsReport, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	s.trackQuery("stats", time.Since(start))
	return report, nil
}

// PerformanceStats returns accumulated query timing counters
func (s *Searcher) PerformanceStats() PerformanceStats {
	s.perfMu.Lock()
	defer s.perfMu.Unlock()

	stats := PerformanceStats{
		TotalQueries:         s.queries,
		SlowQueries:          s.slow,
		TotalExecutionTimeMs: float64(s.totalTime.Microseconds()) / 1000,
	}
	if s.queries > 0 {
		stats.AverageQueryTimeMs = stats.TotalExecutionTimeMs / float64(s.queries)
	}
	return stats
}

// InvalidateCache purges all cached responses. Called after a reindex so
// stale pages never outlive the index state they were built from.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// trackQuery records one query's elapsed time
func (s *Searcher) trackQuery(queryType string, elapsed time.Duration) {
	s.perfMu.Lock()
	s.queries++
	s.totalTime += elapsed
	isSlow := elapsed > slowQueryThreshold
	if isSlow {
		s.slow++
	}
	s.perfMu.Unlock()

	if isSlow {
		s.logger.Warn("slow query",
			zap.String("type", queryType),
			zap.Duration("elapsed", elapsed))
	}
}

// checkCache returns a copy of a live cached response, or nil
func (s *Searcher) checkCache(key [32]byte) *types.SearchResponse {
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves a copy of the response
func (s *Searcher) storeInCache(key [32]byte, response *types.SearchResponse) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(s.cacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// copyResponse deep-copies a response so cached state cannot be mutated by
// callers (the per-record string slices are the only reference fields)
func copyResponse(src *types.SearchResponse) *types.SearchResponse {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Workflows = make([]types.WorkflowRecord, len(src.Workflows))
	for i, record := range src.Workflows {
		dst.Workflows[i] = record
		dst.Workflows[i].Integrations = append([]string(nil), record.Integrations...)
		dst.Workflows[i].Tags = append([]string(nil), record.Tags...)
	}
	return &dst
}

// requestKey computes a deterministic cache key for a normalized request
func requestKey(req *types.SearchRequest) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(req.Trigger)
	data.WriteString("|")
	data.WriteString(req.Complexity)
	data.WriteString("|")
	data.WriteString(req.Category)
	data.WriteString("|")
	data.WriteString(strconv.FormatBool(req.ActiveOnly))
	data.WriteString("|")
	data.WriteString(strconv.Itoa(req.Page))
	data.WriteString("|")
	data.WriteString(strconv.Itoa(req.PerPage))
	return sha256.Sum256([]byte(data.String()))
}

// pageCount is ceil(total/perPage); zero results mean zero pages
func pageCount(total, perPage int) int {
	return (total + perPage - 1) / perPage
}

// validateFilename rejects empty names and anything that could escape the
// document root. Names are root-relative with forward slashes, so nested
// paths are fine; absolute paths, backslashes, and ".." segments are not.
func validateFilename(filename string) error {
	if filename == "" {
		return &types.ValidationError{Field: "filename", Rule: "filename is required"}
	}
	if strings.HasPrefix(filename, "/") || strings.Contains(filename, `\`) || strings.Contains(filename, "..") {
		return &types.ValidationError{Field: "filename", Rule: "filename must not contain path traversal"}
	}
	return nil
}
