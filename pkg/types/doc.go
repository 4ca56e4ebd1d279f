// Package types provides shared type definitions for the flowdex engine.
//
// This package defines the domain types used across components: workflow
// metadata records, search requests and responses, aggregate statistics,
// and the error taxonomy.
//
// # Core Types
//
// WorkflowRecord is the metadata row produced by analyzing one workflow
// document:
//
//	record := &types.WorkflowRecord{
//	    Filename:    "0042_slack_notify_webhook.json",
//	    Name:        "Slack Notify Webhook",
//	    TriggerType: types.TriggerWebhook,
//	    NodeCount:   7,
//	}
//	record.Normalize() // derives Complexity from NodeCount
//
// Complexity is never set independently: ComplexityForNodeCount is the
// single source of truth (<=5 low, 6-15 medium, >=16 high), applied on
// every write.
//
// # Search
//
// SearchRequest carries free text, exact-match filters, and pagination.
// The FilterAll sentinel ("all") disables a filter dimension:
//
//	req := &types.SearchRequest{Query: "slack", Trigger: types.FilterAll}
//	req.Normalize()
//	if err := req.Validate(); err != nil { ... }
//
// # Errors
//
// Structured error types pair with sentinel errors so callers can branch
// with errors.Is:
//
//	if errors.Is(err, types.ErrNotFound) { ... }
//	if errors.Is(err, types.ErrValidation) { ... }
//
// AnalysisError is per-document and recoverable; StorageError is fatal at
// initialization and operation-scoped afterwards; FileSystemError aborts a
// reindex run but never query serving.
package types
