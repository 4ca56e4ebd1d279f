// Package analyzer derives workflow metadata records from workflow documents.
//
// The analyzer parses each document as JSON and statically extracts the
// fields the index stores: node count, derived complexity, trigger
// classification, the set of external-service integrations, and the
// human-readable name.
//
// # Basic Usage
//
//	a := analyzer.New()
//	record, err := a.Analyze(data, "0042_slack_notify_webhook.json")
//	if err != nil {
//	    var analysisErr *types.AnalysisError
//	    if errors.As(err, &analysisErr) {
//	        // per-document, recoverable: log and continue
//	    }
//	}
//
// # Trigger Classification
//
// Node type identifiers decide the trigger type. Webhook-capable nodes
// (including event-style *Trigger nodes) classify as Webhook;
// cron/schedule/interval nodes as Scheduled; two or more distinct
// trigger-capable node types as Complex; a document with none of these is
// Manual. Complex outranks Webhook and Scheduled, which outrank Manual.
//
// # Loose Input
//
// Workflow documents are loosely typed. The analyzer coerces explicitly:
// the active flag accepts booleans, numbers, and the string tokens
// "true"/"1"/"yes"/"on" (anything else is false); tags accept strings or
// {"name": ...} objects; numeric IDs render as strings.
//
// # Error Handling
//
// A structural failure (unparseable JSON, missing or mistyped "nodes"
// collection) returns *types.AnalysisError with the filename and, when the
// decoder reports an offset, a 1-based line hint. The indexing pipeline
// records these errors in the run summary and never aborts the run.
package analyzer
