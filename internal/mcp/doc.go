// Package mcp exposes the workflow index over the Model Context Protocol.
//
// The server speaks MCP over stdio and registers four tools:
//
//   - search_workflows: text search with trigger/complexity/category/active
//     filters and pagination; responds with one page and exact totals.
//   - get_workflow: full indexed record for a single document filename.
//   - workflow_stats: aggregate counts over the index plus query timing.
//   - reindex_workflows: one synchronous incremental reindex pass, optionally
//     forced; responds with the run statistics.
//
// Tool failures map onto JSON-RPC style error codes: -32602 for invalid
// parameters, -32001 when a filename is not indexed, -32002 when a reindex
// is already running, -32603 for everything else.
//
// The server does not own the engine: storage, indexer, and searcher are
// injected by the caller, which also decides the workflow document root.
package mcp
