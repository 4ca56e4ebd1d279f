package types

import (
	"errors"
	"time"
)

// TriggerType classifies how a workflow is initiated.
type TriggerType string

const (
	TriggerManual    TriggerType = "Manual"
	TriggerWebhook   TriggerType = "Webhook"
	TriggerScheduled TriggerType = "Scheduled"
	TriggerComplex   TriggerType = "Complex"
)

// Valid reports whether the trigger type is one of the known values.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerManual, TriggerWebhook, TriggerScheduled, TriggerComplex:
		return true
	default:
		return false
	}
}

// ComplexityLevel is a coarse size classification derived purely from node count.
type ComplexityLevel string

const (
	ComplexityLow    ComplexityLevel = "low"
	ComplexityMedium ComplexityLevel = "medium"
	ComplexityHigh   ComplexityLevel = "high"
)

// Valid reports whether the complexity level is one of the known values.
func (c ComplexityLevel) Valid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	default:
		return false
	}
}

// Node-count boundaries for complexity classification.
const (
	complexityLowMax    = 5
	complexityMediumMax = 15
)

// ComplexityForNodeCount derives the complexity level from a node count.
// Complexity is never stored independently of this function: writers must
// recompute it and readers must never trust a stored value over it.
func ComplexityForNodeCount(n int) ComplexityLevel {
	switch {
	case n <= complexityLowMax:
		return ComplexityLow
	case n <= complexityMediumMax:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

// WorkflowRecord is one indexed workflow document's metadata row.
type WorkflowRecord struct {
	// Identification
	ID         int64  `json:"id"`
	Filename   string `json:"filename"` // unique key, stable identifier
	Name       string `json:"name"`
	WorkflowID string `json:"workflow_id,omitempty"` // externally supplied, may be empty

	// Classification
	Active      bool            `json:"active"`
	Description string          `json:"description"`
	TriggerType TriggerType     `json:"trigger_type"`
	Complexity  ComplexityLevel `json:"complexity"` // derived, see ComplexityForNodeCount
	NodeCount   int             `json:"node_count"`

	// Associations
	Integrations []string `json:"integrations"` // distinct, sorted
	Tags         []string `json:"tags"`         // distinct, document order
	Category     string   `json:"category,omitempty"`

	// Source document metadata
	CreatedAt string `json:"created_at,omitempty"` // source timestamp, verbatim
	UpdatedAt string `json:"updated_at,omitempty"`

	// Index bookkeeping
	FileHash   string    `json:"file_hash"`
	FileSize   int64     `json:"file_size"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Normalize recomputes derived fields before a write. A caller-supplied
// complexity is never trusted.
func (w *WorkflowRecord) Normalize() {
	w.Complexity = ComplexityForNodeCount(w.NodeCount)
}

// Validate checks the record's invariants prior to storage.
func (w *WorkflowRecord) Validate() error {
	if w.Filename == "" {
		return errors.New("filename is required")
	}
	if w.Name == "" {
		return errors.New("name is required")
	}
	if !w.TriggerType.Valid() {
		return errors.New("invalid trigger type")
	}
	if !w.Complexity.Valid() {
		return errors.New("invalid complexity level")
	}
	if w.Complexity != ComplexityForNodeCount(w.NodeCount) {
		return errors.New("complexity inconsistent with node count")
	}
	if w.NodeCount < 0 {
		return errors.New("node count must be >= 0")
	}
	if w.FileSize < 0 {
		return errors.New("file size must be >= 0")
	}
	if w.FileHash == "" {
		return errors.New("file hash is required")
	}
	return nil
}
