// Package storage provides SQLite-based persistence for the workflow index.
//
// One durable database file holds three structures:
//   - workflows: the authoritative metadata table, one row per document,
//     with CHECK constraints mirroring the trigger/complexity enums
//   - workflows_fts: an FTS5 external-content shadow index over the
//     searchable text columns, joined to workflows by rowid
//   - system_metadata: key/value table for the schema version and the
//     last-indexed timestamp
//
// Every write to workflows updates the shadow index in the same transaction
// via triggers; an update is a delete-then-insert against the shadow because
// external-content FTS5 cannot modify a row in place. WAL mode lets any
// number of readers run concurrently with the single writer.
//
// # Build Tags
//
// Two build configurations select the SQLite driver:
//
// CGO build (sqlite_cgo tag), using github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,fts5"
//
// Pure Go build (default), using modernc.org/sqlite:
//
//	CGO_ENABLED=0 go build
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("database/workflows.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Upsert(ctx, record)
//	records, total, err := store.Search(ctx, &types.SearchRequest{Query: "webhook"})
package storage
