package storage

import (
	"context"

	"github.com/dshills/flowdex/pkg/types"
)

// System metadata keys written by the indexing pipeline.
const (
	MetaSchemaVersion = "schema_version"
	MetaLastIndexed   = "last_indexed"
	MetaLastRunID     = "last_run_id"
)

// Store defines the interface for persisting and querying workflow records.
// The indexing pipeline is the sole writer; everything else reads.
type Store interface {
	// Record operations
	Upsert(ctx context.Context, record *types.WorkflowRecord) error
	Get(ctx context.Context, filename string) (*types.WorkflowRecord, error)
	Delete(ctx context.Context, filename string) error

	// ListFingerprints returns filename -> file_hash for every indexed
	// record, used for the incremental skip decision and tombstone sweep.
	ListFingerprints(ctx context.Context) (map[string]string, error)

	// Search runs a filtered full-text query and returns one page of
	// records plus the exact post-filter total.
	Search(ctx context.Context, req *types.SearchRequest) ([]types.WorkflowRecord, int, error)

	// Stats aggregates over the whole authoritative table.
	Stats(ctx context.Context) (*types.StatsReport, error)

	// System metadata operations
	GetMetadata(ctx context.Context, key string) (string, error)
	SetMetadata(ctx context.Context, key, value string) error

	Close() error
}
