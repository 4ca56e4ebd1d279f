// Package indexer coordinates the indexing pipeline for workflow documents.
//
// A reindex run discovers every JSON document under the configured root,
// fingerprints each one, skips documents whose stored hash is unchanged
// (unless forced), analyzes and upserts the rest, and finally sweeps
// records whose documents have disappeared. Runs are convergent: after any
// run the index matches exactly the current file set.
//
// Per-document failures (unreadable file, malformed JSON) are collected in
// the run statistics and never abort the run. At most one reindex is in
// flight at a time; a concurrent request fails with ErrReindexInProgress.
// Cancellation is checked at each file boundary.
package indexer
