package analyzer

import (
	"sort"
	"strings"

	"github.com/dshills/flowdex/pkg/types"
)

// Schedule-capable node type fragments (cron expressions, fixed intervals).
var scheduleFragments = []string{"cron", "schedule", "interval"}

// Manual trigger node type fragments. These establish the Manual baseline
// and never count as trigger-capable for classification.
var manualFragments = []string{"manualtrigger", "executeworkflowtrigger"}

// classifyTrigger inspects node type identifiers and classifies how the
// workflow is initiated. Two or more distinct trigger-capable node types
// make the workflow Complex; Complex outranks Webhook and Scheduled, which
// outrank Manual.
func classifyTrigger(nodeTypes []string) types.TriggerType {
	distinct := make(map[string]struct{})
	hasWebhook := false
	hasScheduled := false

	for _, raw := range nodeTypes {
		t := strings.ToLower(raw)
		switch {
		case isManualTrigger(t):
			// Manual baseline; not trigger-capable for precedence purposes.
		case isScheduleTrigger(t):
			hasScheduled = true
			distinct[t] = struct{}{}
		case isWebhookTrigger(t):
			hasWebhook = true
			distinct[t] = struct{}{}
		}
	}

	switch {
	case len(distinct) >= 2:
		return types.TriggerComplex
	case hasWebhook:
		return types.TriggerWebhook
	case hasScheduled:
		return types.TriggerScheduled
	default:
		return types.TriggerManual
	}
}

func isManualTrigger(t string) bool {
	for _, fragment := range manualFragments {
		if strings.Contains(t, fragment) {
			return true
		}
	}
	return strings.HasSuffix(t, ".start") || t == "start"
}

func isScheduleTrigger(t string) bool {
	for _, fragment := range scheduleFragments {
		if strings.Contains(t, fragment) {
			return true
		}
	}
	return false
}

// isWebhookTrigger matches webhook nodes and event-style trigger nodes,
// which are webhook-backed. Response nodes mention "webhook" without being
// trigger-capable and are excluded.
func isWebhookTrigger(t string) bool {
	if strings.Contains(t, "respondtowebhook") {
		return false
	}
	if strings.Contains(t, "webhook") {
		return true
	}
	return strings.HasSuffix(t, "trigger")
}

// Utility and control-flow node names that imply no external service.
var genericNodes = map[string]struct{}{
	"start":            {},
	"set":              {},
	"if":               {},
	"switch":           {},
	"merge":            {},
	"noop":             {},
	"function":         {},
	"functionitem":     {},
	"code":             {},
	"wait":             {},
	"stickynote":       {},
	"splitinbatches":   {},
	"itemlists":        {},
	"filter":           {},
	"sort":             {},
	"limit":            {},
	"datetime":         {},
	"error":            {},
	"executeworkflow":  {},
	"respondtowebhook": {},
	"webhook":          {},
	"cron":             {},
	"schedule":         {},
	"interval":         {},
	"manual":           {},
	"form":             {},
}

// extractIntegrations collects the distinct external-service identifiers
// implied by node types: case-folded, vendor prefix stripped, trigger
// suffix dropped, utility nodes excluded, result sorted for reproducible
// storage.
func extractIntegrations(nodeTypes []string) []string {
	seen := make(map[string]struct{})
	for _, raw := range nodeTypes {
		name := normalizeNodeType(raw)
		if name == "" {
			continue
		}
		if _, generic := genericNodes[name]; generic {
			continue
		}
		seen[name] = struct{}{}
	}

	if len(seen) == 0 {
		return nil
	}
	integrations := make([]string, 0, len(seen))
	for name := range seen {
		integrations = append(integrations, name)
	}
	sort.Strings(integrations)
	return integrations
}

// normalizeNodeType reduces a node type identifier to a service name:
// "n8n-nodes-base.telegramTrigger" -> "telegram"
func normalizeNodeType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.LastIndex(t, "."); i >= 0 {
		t = t[i+1:]
	}
	t = strings.TrimSuffix(t, "trigger")
	return t
}
