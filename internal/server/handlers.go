package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dshills/flowdex/internal/searcher"
	"github.com/dshills/flowdex/pkg/types"
)

// handleSearch answers GET /api/workflows. All parameters are optional;
// an empty request lists the first page of everything by filename.
func (s *Server) handleSearch(c echo.Context) error {
	req := &types.SearchRequest{
		Query:      c.QueryParam("q"),
		Trigger:    c.QueryParam("trigger"),
		Complexity: c.QueryParam("complexity"),
		Category:   c.QueryParam("category"),
		ActiveOnly: parseBool(c.QueryParam("active_only")),
	}

	var err error
	if req.Page, err = parseIntParam(c.QueryParam("page"), "page"); err != nil {
		return httpError(err)
	}
	if req.PerPage, err = parseIntParam(c.QueryParam("per_page"), "per_page"); err != nil {
		return httpError(err)
	}

	response, err := s.searcher.Search(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response)
}

// handleGet answers GET /api/workflows/<filename>. The wildcard keeps
// nested document names addressable; traversal is rejected downstream.
func (s *Server) handleGet(c echo.Context) error {
	filename := c.Param("*")

	record, err := s.searcher.Get(c.Request().Context(), filename)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// statsResponse is the index aggregate plus query timing counters
type statsResponse struct {
	*types.StatsReport
	Performance searcher.PerformanceStats `json:"performance"`
}

// handleStats answers GET /api/stats
func (s *Server) handleStats(c echo.Context) error {
	report, err := s.searcher.Stats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, statsResponse{
		StatsReport: report,
		Performance: s.searcher.PerformanceStats(),
	})
}

// handleReindex answers POST /api/reindex. The run is synchronous; callers
// get the full run statistics or 409 when a run is already in flight.
func (s *Server) handleReindex(c echo.Context) error {
	force := parseBool(c.QueryParam("force"))

	stats, err := s.indexer.Reindex(c.Request().Context(), s.config.WorkflowsRoot, force)
	if err != nil {
		return httpError(err)
	}

	// Cached pages were built from the previous index state.
	s.searcher.InvalidateCache()

	return c.JSON(http.StatusOK, stats)
}

// handleHealth answers GET /healthz
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// parseBool accepts the same truth tokens used for document coercion
func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// parseIntParam parses an optional positive integer query parameter;
// zero means "not provided" and lets normalization pick the default
func parseIntParam(value, field string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &types.ValidationError{Field: field, Rule: "must be an integer"}
	}
	return n, nil
}
