package searcher

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/flowdex/internal/storage"
	"github.com/dshills/flowdex/pkg/types"
)

// countingStore wraps a real store and counts Search calls so cache
// behavior is observable.
type countingStore struct {
	storage.Store
	searchCalls int
}

func (c *countingStore) Search(ctx context.Context, req *types.SearchRequest) ([]types.WorkflowRecord, int, error) {
	c.searchCalls++
	return c.Store.Search(ctx, req)
}

func setupSearcher(t *testing.T) (*Searcher, *countingStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	counting := &countingStore{Store: store}
	return New(counting, zap.NewNop(), nil), counting
}

func seedWorkflows(t *testing.T, store storage.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		record := &types.WorkflowRecord{
			Filename:     fmt.Sprintf("wf_%03d.json", i),
			Name:         fmt.Sprintf("Workflow %03d", i),
			Active:       i%2 == 0,
			TriggerType:  types.TriggerWebhook,
			NodeCount:    3,
			Integrations: []string{"slack"},
			FileHash:     fmt.Sprintf("hash%03d", i),
			FileSize:     100,
			AnalyzedAt:   time.Now().UTC(),
		}
		require.NoError(t, store.Upsert(ctx, record))
	}
}

func TestSearch_ComputesPageArithmetic(t *testing.T) {
	s, counting := setupSearcher(t)
	seedWorkflows(t, counting.Store, 5)

	resp, err := s.Search(context.Background(), &types.SearchRequest{PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 3, resp.Pages)
	assert.Equal(t, 1, resp.Page)
	assert.Len(t, resp.Workflows, 2)
}

func TestSearch_EmptyIndexHasZeroPages(t *testing.T) {
	s, _ := setupSearcher(t)

	resp, err := s.Search(context.Background(), &types.SearchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
	assert.Equal(t, 0, resp.Pages)
	assert.Empty(t, resp.Workflows)
}

func TestSearch_RejectsInvalidRequests(t *testing.T) {
	s, _ := setupSearcher(t)
	ctx := context.Background()

	_, err := s.Search(ctx, &types.SearchRequest{Query: strings.Repeat("x", types.MaxQueryLength+1)})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = s.Search(ctx, &types.SearchRequest{Page: -1})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = s.Search(ctx, &types.SearchRequest{PerPage: types.MaxPerPage + 1})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = s.Search(ctx, &types.SearchRequest{Trigger: "Telepathy"})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSearch_CachesIdenticalRequests(t *testing.T) {
	s, counting := setupSearcher(t)
	seedWorkflows(t, counting.Store, 3)
	ctx := context.Background()

	first, err := s.Search(ctx, &types.SearchRequest{Query: "workflow"})
	require.NoError(t, err)
	assert.Equal(t, 1, counting.searchCalls)

	second, err := s.Search(ctx, &types.SearchRequest{Query: "workflow"})
	require.NoError(t, err)
	assert.Equal(t, 1, counting.searchCalls, "second identical request should hit the cache")
	assert.Equal(t, first.Total, second.Total)

	// A different request misses.
	_, err = s.Search(ctx, &types.SearchRequest{Query: "workflow", ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 2, counting.searchCalls)
}

func TestSearch_InvalidateCacheForcesRefetch(t *testing.T) {
	s, counting := setupSearcher(t)
	seedWorkflows(t, counting.Store, 3)
	ctx := context.Background()

	_, err := s.Search(ctx, &types.SearchRequest{})
	require.NoError(t, err)

	s.InvalidateCache()

	_, err = s.Search(ctx, &types.SearchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, counting.searchCalls)
}

func TestSearch_CachedResponseIsIsolated(t *testing.T) {
	s, counting := setupSearcher(t)
	seedWorkflows(t, counting.Store, 2)
	ctx := context.Background()

	first, err := s.Search(ctx, &types.SearchRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, first.Workflows)

	// Mutating a returned response must not poison the cache.
	first.Workflows[0].Name = "mangled"
	first.Workflows[0].Integrations[0] = "mangled"

	second, err := s.Search(ctx, &types.SearchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, counting.searchCalls)
	assert.NotEqual(t, "mangled", second.Workflows[0].Name)
	assert.NotEqual(t, "mangled", second.Workflows[0].Integrations[0])
}

func TestGet_RejectsPathTraversal(t *testing.T) {
	s, _ := setupSearcher(t)
	ctx := context.Background()

	for _, filename := range []string{"", "../etc/passwd", "a/../b.json", `dir\wf.json`, "/etc/passwd"} {
		_, err := s.Get(ctx, filename)
		assert.ErrorIs(t, err, types.ErrValidation, "filename %q", filename)
	}
}

func TestGet_AllowsNestedNames(t *testing.T) {
	s, counting := setupSearcher(t)
	ctx := context.Background()

	record := &types.WorkflowRecord{
		Filename:    "team/0001_sync.json",
		Name:        "Sync",
		TriggerType: types.TriggerManual,
		NodeCount:   1,
		FileHash:    "abc",
		FileSize:    10,
		AnalyzedAt:  time.Now().UTC(),
	}
	require.NoError(t, counting.Store.Upsert(ctx, record))

	got, err := s.Get(ctx, "team/0001_sync.json")
	require.NoError(t, err)
	assert.Equal(t, "Sync", got.Name)
}

func TestGet_NotFound(t *testing.T) {
	s, _ := setupSearcher(t)

	_, err := s.Get(context.Background(), "missing.json")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestStats_Passthrough(t *testing.T) {
	s, counting := setupSearcher(t)
	seedWorkflows(t, counting.Store, 4)

	report, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Active)
}

func TestPerformanceStats_CountsQueries(t *testing.T) {
	s, counting := setupSearcher(t)
	seedWorkflows(t, counting.Store, 1)
	ctx := context.Background()

	_, err := s.Search(ctx, &types.SearchRequest{})
	require.NoError(t, err)
	_, err = s.Stats(ctx)
	require.NoError(t, err)

	stats := s.PerformanceStats()
	assert.Equal(t, 2, stats.TotalQueries)
	assert.Equal(t, 0, stats.SlowQueries)
	assert.GreaterOrEqual(t, stats.TotalExecutionTimeMs, 0.0)

	// Cache hits are answered without touching storage and are not timed.
	_, err = s.Search(ctx, &types.SearchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.PerformanceStats().TotalQueries)
}
