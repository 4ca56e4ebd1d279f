package types

// FilterAll is the sentinel filter value meaning "no constraint".
const FilterAll = "all"

// Request validation bounds.
const (
	MaxQueryLength = 500
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// SearchRequest describes one search call. Request-scoped, never persisted.
type SearchRequest struct {
	Query      string `json:"q"`
	Trigger    string `json:"trigger"`    // TriggerType value or FilterAll
	Complexity string `json:"complexity"` // ComplexityLevel value or FilterAll
	Category   string `json:"category"`   // exact category or FilterAll
	ActiveOnly bool   `json:"active_only"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
}

// Normalize fills zero-valued fields with their defaults.
func (r *SearchRequest) Normalize() {
	if r.Trigger == "" {
		r.Trigger = FilterAll
	}
	if r.Complexity == "" {
		r.Complexity = FilterAll
	}
	if r.Category == "" {
		r.Category = FilterAll
	}
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PerPage == 0 {
		r.PerPage = DefaultPerPage
	}
}

// Validate rejects malformed requests before they reach storage.
func (r *SearchRequest) Validate() error {
	if len(r.Query) > MaxQueryLength {
		return &ValidationError{Field: "q", Rule: "query must be at most 500 characters"}
	}
	if r.Page < 1 {
		return &ValidationError{Field: "page", Rule: "page must be >= 1"}
	}
	if r.PerPage < 1 || r.PerPage > MaxPerPage {
		return &ValidationError{Field: "per_page", Rule: "per_page must be between 1 and 100"}
	}
	if r.Trigger != FilterAll && !TriggerType(r.Trigger).Valid() {
		return &ValidationError{Field: "trigger", Rule: "trigger must be one of all, Manual, Webhook, Scheduled, Complex"}
	}
	if r.Complexity != FilterAll && !ComplexityLevel(r.Complexity).Valid() {
		return &ValidationError{Field: "complexity", Rule: "complexity must be one of all, low, medium, high"}
	}
	return nil
}

// SearchResponse is one page of search results with exact totals.
type SearchResponse struct {
	Workflows []WorkflowRecord `json:"workflows"`
	Total     int              `json:"total"` // post-filter, pre-pagination
	Page      int              `json:"page"`
	PerPage   int              `json:"per_page"`
	Pages     int              `json:"pages"` // ceil(Total/PerPage)
	Query     string           `json:"query"`
}

// StatsReport aggregates the whole index.
type StatsReport struct {
	Total              int            `json:"total"`
	Active             int            `json:"active"`
	Inactive           int            `json:"inactive"`
	Triggers           map[string]int `json:"triggers"`
	Complexity         map[string]int `json:"complexity"`
	TotalNodes         int            `json:"total_nodes"`
	UniqueIntegrations int            `json:"unique_integrations"`
	Categories         []string       `json:"categories"`
	LastIndexed        string         `json:"last_indexed,omitempty"`
}
