package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchWorkflowsTool returns the tool definition for search_workflows
func searchWorkflowsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_workflows",
		Description: "Search indexed workflow documents by text and filters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free-text search over name, description, integrations, and tags (empty lists everything)",
				},
				"trigger": map[string]interface{}{
					"type":        "string",
					"description": "Filter by trigger classification",
					"enum":        []string{"all", "Manual", "Webhook", "Scheduled", "Complex"},
					"default":     "all",
				},
				"complexity": map[string]interface{}{
					"type":        "string",
					"description": "Filter by complexity bucket",
					"enum":        []string{"all", "low", "medium", "high"},
					"default":     "all",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Filter by exact category",
				},
				"active_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, only return active workflows",
					"default":     false,
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (1-based)",
					"default":     1,
					"minimum":     1,
				},
				"per_page": map[string]interface{}{
					"type":        "integer",
					"description": "Results per page (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}

// getWorkflowTool returns the tool definition for get_workflow
func getWorkflowTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_workflow",
		Description: "Get the full indexed record for one workflow document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Document filename relative to the workflow root (e.g. 0001_invoice_sync.json)",
				},
			},
			Required: []string{"filename"},
		},
	}
}

// workflowStatsTool returns the tool definition for workflow_stats
func workflowStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "workflow_stats",
		Description: "Get aggregate statistics over the whole workflow index",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// reindexWorkflowsTool returns the tool definition for reindex_workflows
func reindexWorkflowsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reindex_workflows",
		Description: "Run one incremental reindex pass over the workflow document root",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-analyze every document ignoring stored fingerprints",
					"default":     false,
				},
			},
		},
	}
}
