package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/flowdex/internal/indexer"
	"github.com/dshills/flowdex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeWorkflowNotFound  = -32001 // No indexed record for the filename
	ErrorCodeReindexInProgress = -32002 // Another reindex is already running
)

// handleSearchWorkflows handles the search_workflows tool invocation
func (s *Server) handleSearchWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	req := &types.SearchRequest{
		Query:      getStringDefault(args, "query", ""),
		Trigger:    getStringDefault(args, "trigger", ""),
		Complexity: getStringDefault(args, "complexity", ""),
		Category:   getStringDefault(args, "category", ""),
		ActiveOnly: getBoolDefault(args, "active_only", false),
		Page:       getIntDefault(args, "page", 0),
		PerPage:    getIntDefault(args, "per_page", 0),
	}

	response, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, toolError(err)
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode response", nil)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// handleGetWorkflow handles the get_workflow tool invocation
func (s *Server) handleGetWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	filename, ok := args["filename"].(string)
	if !ok || filename == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "filename parameter is required", map[string]interface{}{
			"param":  "filename",
			"reason": "missing or empty",
		})
	}

	record, err := s.searcher.Get(ctx, filename)
	if err != nil {
		return nil, toolError(err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode record", nil)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// handleWorkflowStats handles the workflow_stats tool invocation
func (s *Server) handleWorkflowStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.searcher.Stats(ctx)
	if err != nil {
		return nil, toolError(err)
	}

	response := map[string]interface{}{
		"total":               report.Total,
		"active":              report.Active,
		"inactive":            report.Inactive,
		"triggers":            report.Triggers,
		"complexity":          report.Complexity,
		"total_nodes":         report.TotalNodes,
		"unique_integrations": report.UniqueIntegrations,
		"categories":          report.Categories,
		"last_indexed":        report.LastIndexed,
		"performance":         s.searcher.PerformanceStats(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleReindexWorkflows handles the reindex_workflows tool invocation
func (s *Server) handleReindexWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	force := getBoolDefault(args, "force", false)

	stats, err := s.indexer.Reindex(ctx, s.root, force)
	if err != nil {
		return nil, toolError(err)
	}

	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"run_id":      stats.RunID,
		"processed":   stats.Processed,
		"skipped":     stats.Skipped,
		"failed":      stats.Failed,
		"deleted":     stats.Deleted,
		"duration_ms": stats.Duration.Milliseconds(),
	}
	if len(stats.Errors) > 0 {
		// Include first few errors
		if len(stats.Errors) > 5 {
			response["errors"] = stats.Errors[:5]
			response["error_count"] = len(stats.Errors)
		} else {
			response["errors"] = stats.Errors
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// toolError maps engine errors onto MCP error codes
func toolError(err error) error {
	switch {
	case errors.Is(err, types.ErrValidation):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	case errors.Is(err, types.ErrNotFound):
		return newMCPError(ErrorCodeWorkflowNotFound, err.Error(), nil)
	case errors.Is(err, indexer.ErrReindexInProgress):
		return newMCPError(ErrorCodeReindexInProgress, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, err.Error(), nil)
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
