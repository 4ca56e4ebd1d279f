package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/flowdex/internal/indexer"
	"github.com/dshills/flowdex/internal/searcher"
	"github.com/dshills/flowdex/internal/storage"
	"github.com/dshills/flowdex/pkg/types"
)

const sampleDoc = `{
	"name": "Invoice Sync",
	"active": true,
	"nodes": [
		{"type": "n8n-nodes-base.webhook"},
		{"type": "n8n-nodes-base.slack"}
	]
}`

func setupServer(t *testing.T) (*Server, storage.Store, string) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	root := t.TempDir()
	logger := zap.NewNop()
	idx := indexer.New(store, logger, nil)
	s := searcher.New(store, logger, nil)

	srv := New(s, idx, Config{
		Addr:          "127.0.0.1:0",
		WorkflowsRoot: root,
	}, logger)
	return srv, store, root
}

func doRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func seedRecord(t *testing.T, store storage.Store, filename, name string) {
	t.Helper()
	require.NoError(t, store.Upsert(context.Background(), &types.WorkflowRecord{
		Filename:    filename,
		Name:        name,
		Active:      true,
		TriggerType: types.TriggerWebhook,
		NodeCount:   2,
		FileHash:    "hash-" + filename,
		FileSize:    10,
		AnalyzedAt:  time.Now().UTC(),
	}))
}

func TestHandleSearch(t *testing.T) {
	srv, store, _ := setupServer(t)
	seedRecord(t, store, "0001_invoice_sync.json", "Invoice Sync")
	seedRecord(t, store, "0002_cleanup.json", "Cleanup")

	rec := doRequest(srv, http.MethodGet, "/api/workflows?q=invoice")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Workflows, 1)
	assert.Equal(t, "Invoice Sync", resp.Workflows[0].Name)
	assert.Equal(t, 1, resp.Pages)
}

func TestHandleSearch_InvalidParams(t *testing.T) {
	srv, _, _ := setupServer(t)

	for _, target := range []string{
		"/api/workflows?page=abc",
		"/api/workflows?page=-1",
		"/api/workflows?per_page=1000",
		"/api/workflows?trigger=Telepathy",
	} {
		rec := doRequest(srv, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandleGet(t *testing.T) {
	srv, store, _ := setupServer(t)
	seedRecord(t, store, "0001_invoice_sync.json", "Invoice Sync")

	rec := doRequest(srv, http.MethodGet, "/api/workflows/0001_invoice_sync.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var record types.WorkflowRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "Invoice Sync", record.Name)
}

func TestHandleGet_NotFound(t *testing.T) {
	srv, _, _ := setupServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/workflows/missing.json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGet_RejectsTraversal(t *testing.T) {
	srv, _, _ := setupServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/workflows/..%2Fetc%2Fpasswd")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStats(t *testing.T) {
	srv, store, _ := setupServer(t)
	seedRecord(t, store, "0001_invoice_sync.json", "Invoice Sync")

	rec := doRequest(srv, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total       int `json:"total"`
		Performance struct {
			TotalQueries int `json:"total_queries"`
		} `json:"performance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.GreaterOrEqual(t, resp.Performance.TotalQueries, 1)
}

func TestHandleReindex(t *testing.T) {
	srv, _, root := setupServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "0001_invoice_sync.json"), []byte(sampleDoc), 0o644))

	rec := doRequest(srv, http.MethodPost, "/api/reindex")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats indexer.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Processed)

	// The fresh record is immediately searchable.
	search := doRequest(srv, http.MethodGet, "/api/workflows?q=invoice")
	require.Equal(t, http.StatusOK, search.Code)
	var resp types.SearchResponse
	require.NoError(t, json.Unmarshal(search.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := setupServer(t)

	rec := doRequest(srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHTTPErrorMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, httpError(types.ErrNotFound).Code)
	assert.Equal(t, http.StatusBadRequest, httpError(&types.ValidationError{Field: "q", Rule: "too long"}).Code)
	assert.Equal(t, http.StatusConflict, httpError(indexer.ErrReindexInProgress).Code)
	assert.Equal(t, http.StatusGatewayTimeout, httpError(context.DeadlineExceeded).Code)
	assert.Equal(t, http.StatusInternalServerError, httpError(assert.AnError).Code)
}
