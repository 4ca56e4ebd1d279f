package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/flowdex/internal/fingerprint"
	"github.com/dshills/flowdex/pkg/types"
)

// Analyzer derives workflow metadata records from raw document bytes
type Analyzer struct{}

// New creates a new Analyzer instance
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze parses a workflow document and derives its metadata record.
//
// Structural failures (unparseable JSON, missing or mistyped "nodes"
// collection) return an AnalysisError carrying the filename and a line hint
// where one is available. Callers treat that as per-document and recoverable.
func (a *Analyzer) Analyze(data []byte, filename string) (*types.WorkflowRecord, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &types.AnalysisError{
			Filename: filename,
			Line:     lineHint(data, err),
			Err:      fmt.Errorf("parse document: %w", err),
		}
	}

	rawNodes, ok := doc["nodes"]
	if !ok {
		return nil, &types.AnalysisError{
			Filename: filename,
			Err:      errors.New(`missing required "nodes" collection`),
		}
	}
	nodes, ok := rawNodes.([]any)
	if !ok {
		return nil, &types.AnalysisError{
			Filename: filename,
			Err:      errors.New(`"nodes" must be an array`),
		}
	}

	nodeTypes := make([]string, 0, len(nodes))
	for i, rawNode := range nodes {
		node, ok := rawNode.(map[string]any)
		if !ok {
			return nil, &types.AnalysisError{
				Filename: filename,
				Err:      fmt.Errorf("node %d is not an object", i),
			}
		}
		// Nodes without a type string still count toward node_count but
		// contribute nothing to classification.
		if t, ok := node["type"].(string); ok && t != "" {
			nodeTypes = append(nodeTypes, t)
		}
	}

	record := &types.WorkflowRecord{
		Filename:     filename,
		Name:         displayName(doc, filename),
		WorkflowID:   coerceString(doc["id"]),
		Active:       coerceBool(doc["active"]),
		Description:  coerceString(doc["description"]),
		TriggerType:  classifyTrigger(nodeTypes),
		NodeCount:    len(nodes),
		Integrations: extractIntegrations(nodeTypes),
		Tags:         coerceTags(doc["tags"]),
		CreatedAt:    coerceString(doc["createdAt"]),
		UpdatedAt:    coerceString(doc["updatedAt"]),
		FileHash:     fingerprint.Compute(data),
		FileSize:     int64(len(data)),
		AnalyzedAt:   time.Now().UTC(),
	}
	record.Normalize()

	return record, nil
}

// displayName prefers the document's own name and falls back to the filename
func displayName(doc map[string]any, filename string) string {
	if name, ok := doc["name"].(string); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return FormatName(filename)
}

// lineHint maps a JSON decode error offset to a 1-based line number
func lineHint(data []byte, err error) int {
	var offset int64
	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &synErr):
		offset = synErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}

	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return 1 + bytes.Count(data[:offset], []byte("\n"))
}

// Truth tokens accepted by the loose active-flag coercion.
var activeTruthTokens = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"on":   true,
}

// coerceBool is the total parsing function for the loosely-typed active
// flag: booleans pass through, nonzero numbers are true, recognized string
// tokens are true, and everything else (including absence) is false.
func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return activeTruthTokens[strings.ToLower(strings.TrimSpace(val))]
	default:
		return false
	}
}

// coerceString renders scalar document values as strings, empty otherwise
func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// coerceTags accepts both plain strings and {"name": ...} tag objects,
// deduplicating while preserving document order
func coerceTags(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, item := range raw {
		var tag string
		switch val := item.(type) {
		case string:
			tag = val
		case map[string]any:
			tag, _ = val["name"].(string)
		}

		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		return nil
	}
	return tags
}
