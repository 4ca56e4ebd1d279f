// Package searcher implements the read side of the workflow index.
//
// A search request combines free text, exact-match filters, and pagination.
// Empty text runs a relational filter scan ordered by filename; non-empty
// text runs through the FTS5 shadow index for BM25 relevance ranking and is
// intersected with the filters. Totals are post-filter and pre-pagination,
// so page arithmetic is exact.
//
// Results are cached in a bounded LRU keyed by the full request; the cache
// is purged when a reindex completes. Every query is tracked against a
// configurable time budget and counted in the performance stats, with slow
// queries logged.
package searcher
