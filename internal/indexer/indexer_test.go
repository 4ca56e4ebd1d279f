package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/flowdex/internal/storage"
	"github.com/dshills/flowdex/pkg/types"
)

const webhookDoc = `{
	"name": "Slack Alert",
	"active": true,
	"nodes": [
		{"type": "n8n-nodes-base.webhook"},
		{"type": "n8n-nodes-base.slack"},
		{"type": "n8n-nodes-base.set"}
	]
}`

const manualDoc = `{
	"nodes": [
		{"type": "n8n-nodes-base.set"}, {"type": "n8n-nodes-base.set"},
		{"type": "n8n-nodes-base.set"}, {"type": "n8n-nodes-base.set"},
		{"type": "n8n-nodes-base.set"}, {"type": "n8n-nodes-base.set"},
		{"type": "n8n-nodes-base.set"}, {"type": "n8n-nodes-base.set"},
		{"type": "n8n-nodes-base.set"}, {"type": "n8n-nodes-base.set"}
	]
}`

func setupIndexer(t *testing.T) (*Indexer, storage.Store, string) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	root := t.TempDir()
	return New(store, zap.NewNop(), nil), store, root
}

func writeWorkflow(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

func TestReindex_ProcessesNewDocuments(t *testing.T) {
	idx, store, root := setupIndexer(t)
	ctx := context.Background()

	writeWorkflow(t, root, "0001_slack_webhook.json", webhookDoc)
	writeWorkflow(t, root, "0002_cleanup.json", manualDoc)

	stats, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.NotEmpty(t, stats.RunID)

	record, err := store.Get(ctx, "0001_slack_webhook.json")
	require.NoError(t, err)
	assert.Equal(t, types.TriggerWebhook, record.TriggerType)
	assert.Equal(t, types.ComplexityLow, record.Complexity)
	assert.True(t, record.Active)
}

func TestReindex_Idempotent(t *testing.T) {
	idx, _, root := setupIndexer(t)
	ctx := context.Background()

	writeWorkflow(t, root, "wf.json", webhookDoc)

	first, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Skipped)
}

func TestReindex_ForceReprocessesUnchanged(t *testing.T) {
	idx, _, root := setupIndexer(t)
	ctx := context.Background()

	writeWorkflow(t, root, "wf.json", webhookDoc)

	_, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)

	stats, err := idx.Reindex(ctx, root, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
}

func TestReindex_DetectsChangedContent(t *testing.T) {
	idx, store, root := setupIndexer(t)
	ctx := context.Background()

	writeWorkflow(t, root, "wf.json", webhookDoc)
	_, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)

	writeWorkflow(t, root, "wf.json", manualDoc)
	stats, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)

	record, err := store.Get(ctx, "wf.json")
	require.NoError(t, err)
	assert.Equal(t, types.TriggerManual, record.TriggerType)
	assert.Equal(t, types.ComplexityMedium, record.Complexity)
}

func TestReindex_TombstoneSweep(t *testing.T) {
	idx, store, root := setupIndexer(t)
	ctx := context.Background()

	writeWorkflow(t, root, "keep.json", webhookDoc)
	writeWorkflow(t, root, "remove.json", manualDoc)

	_, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "remove.json")))

	stats, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)

	_, err = store.Get(ctx, "remove.json")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = store.Get(ctx, "keep.json")
	assert.NoError(t, err)
}

func TestReindex_MalformedDocumentIsRecoverable(t *testing.T) {
	idx, store, root := setupIndexer(t)
	ctx := context.Background()

	writeWorkflow(t, root, "good_webhook.json", webhookDoc)
	writeWorkflow(t, root, "plain.json", manualDoc)
	writeWorkflow(t, root, "broken.json", `{"nodes": [`)

	stats, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "broken.json")

	report, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
}

func TestReindex_FailedDocumentKeepsOldRecord(t *testing.T) {
	idx, store, root := setupIndexer(t)
	ctx := context.Background()

	writeWorkflow(t, root, "wf.json", webhookDoc)
	_, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)

	// File corrupts in place: the old record stays, the run records a failure.
	writeWorkflow(t, root, "wf.json", "not json at all")
	stats, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Deleted)

	record, err := store.Get(ctx, "wf.json")
	require.NoError(t, err)
	assert.Equal(t, types.TriggerWebhook, record.TriggerType)
}

func TestReindex_MissingRootIsFatal(t *testing.T) {
	idx, _, root := setupIndexer(t)

	_, err := idx.Reindex(context.Background(), filepath.Join(root, "nope"), false)
	assert.ErrorIs(t, err, types.ErrFileSystem)
}

func TestReindex_RejectsConcurrentRun(t *testing.T) {
	idx, _, root := setupIndexer(t)

	require.True(t, idx.lock.TryAcquire())
	defer idx.lock.Release()

	_, err := idx.Reindex(context.Background(), root, false)
	assert.ErrorIs(t, err, ErrReindexInProgress)
}

func TestReindex_WritesRunMetadata(t *testing.T) {
	idx, store, root := setupIndexer(t)
	ctx := context.Background()

	writeWorkflow(t, root, "wf.json", webhookDoc)
	stats, err := idx.Reindex(ctx, root, false)
	require.NoError(t, err)

	runID, err := store.GetMetadata(ctx, storage.MetaLastRunID)
	require.NoError(t, err)
	assert.Equal(t, stats.RunID, runID)

	lastIndexed, err := store.GetMetadata(ctx, storage.MetaLastIndexed)
	require.NoError(t, err)
	assert.NotEmpty(t, lastIndexed)
}
