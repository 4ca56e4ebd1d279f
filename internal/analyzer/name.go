package analyzer

import (
	"path/filepath"
	"strings"
)

// Canonical casing for known acronyms and technology abbreviations,
// applied regardless of position in the name.
var acronymCase = map[string]string{
	"http":       "HTTP",
	"api":        "API",
	"webhook":    "Webhook",
	"automation": "Automation",
	"scheduled":  "Scheduled",
	"manual":     "Manual",
	"ai":         "AI",
	"ml":         "ML",
	"csv":        "CSV",
	"json":       "JSON",
	"xml":        "XML",
	"sql":        "SQL",
	"ftp":        "FTP",
	"smtp":       "SMTP",
	"oauth":      "OAuth",
	"jwt":        "JWT",
	"crud":       "CRUD",
}

// FormatName derives a human-readable workflow name from a filename:
// the extension is stripped, separator characters split the words, a
// pure-numeric leading segment (internal ID prefix) is dropped, and each
// word is title-cased with acronyms forced to their canonical casing.
//
//	"0042_slack_http_automation.json" -> "Slack HTTP Automation"
func FormatName(filename string) string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	if len(parts) > 1 && isDigits(parts[0]) {
		parts = parts[1:]
	}

	for i, part := range parts {
		if canonical, ok := acronymCase[strings.ToLower(part)]; ok {
			parts[i] = canonical
		} else {
			parts[i] = capitalize(part)
		}
	}

	formatted := strings.Join(parts, " ")
	if formatted == "" {
		return filename
	}
	return formatted
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
