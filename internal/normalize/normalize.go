// Package normalize maps heterogeneous raw analyzer output into the
// canonical finding schema.
package normalize

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
)

// Findings normalizes raw findings against a change set. Out-of-range
// line numbers and unknown files are dropped rather than failing the
// run; every drop or defaulting decision is reported as a warning.
func Findings(raws []finding.RawFinding, cs *diffparse.ChangeSet) ([]finding.Finding, []string) {
	var out []finding.Finding
	var warnings []string

	for _, raw := range raws {
		fd := cs.File(raw.File)
		if fd == nil {
			warnings = append(warnings, fmt.Sprintf("%s: dropped finding for file outside change set (%s)", raw.Tool, raw.File))
			continue
		}
		if raw.Line < 1 || raw.Line > fd.MaxNewLine() {
			warnings = append(warnings, fmt.Sprintf("%s: dropped finding at %s:%d: line outside new-file range", raw.Tool, raw.File, raw.Line))
			continue
		}

		sev, known := canonicalSeverity(raw.Severity)
		if !known {
			warnings = append(warnings, fmt.Sprintf("%s: unknown severity %q at %s:%d, defaulting to MEDIUM", raw.Tool, raw.Severity, raw.File, raw.Line))
		}

		cat := finding.Category(strings.ToLower(strings.TrimSpace(raw.Category)))
		if !finding.ValidCategory(cat) {
			cat = inferCategory(raw.RuleID, raw.Tool, raw.Message)
		}

		out = append(out, finding.Finding{
			ID:           finding.ContentID(raw.File, raw.Line, raw.RuleID, raw.Message),
			Source:       raw.Source,
			Tool:         raw.Tool,
			RuleID:       raw.RuleID,
			File:         raw.File,
			Line:         raw.Line,
			Severity:     sev,
			Category:     cat,
			Message:      raw.Message,
			SuggestedFix: raw.Suggestion,
			Confidence:   confidence(raw),
		})
	}

	return out, warnings
}

// canonicalSeverity maps tool severity labels onto the LOW/MEDIUM/HIGH
// scale, case-insensitively. Unknown labels default to MEDIUM.
func canonicalSeverity(s string) (finding.Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "info", "informational", "note":
		return finding.SeverityLow, true
	case "medium", "warning", "moderate":
		return finding.SeverityMedium, true
	case "high", "error", "critical":
		return finding.SeverityHigh, true
	default:
		return finding.SeverityMedium, false
	}
}

// confidence resolves the raw score: static findings default to 1.0
// unless the tool supplied one, model scores pass through clamped.
func confidence(raw finding.RawFinding) float64 {
	if !raw.HasConfidence {
		if raw.Source == finding.SourceStatic {
			return 1.0
		}
		// Model output is probabilistic even when it reports no score.
		return 0.8
	}
	c := raw.Confidence
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Keyword fallbacks for category inference, checked in order.
var categoryKeywords = []struct {
	category finding.Category
	words    []string
}{
	{finding.CategorySecurity, []string{
		"security", "vulnerability", "injection", "xss", "csrf", "auth",
		"password", "token", "secret", "crypto", "sql", "command",
		"hardcoded", "unsafe", "exploit",
	}},
	{finding.CategoryPerformance, []string{
		"performance", "slow", "inefficient", "optimize", "cache",
		"memory", "cpu", "n+1",
	}},
	{finding.CategoryStyle, []string{
		"style", "format", "lint", "convention", "naming", "whitespace",
		"complexity", "unused", "import",
	}},
	{finding.CategoryBug, []string{
		"error", "exception", "null", "undefined", "race", "deadlock",
		"leak", "overflow", "assert", "crash",
	}},
}

// Tools whose findings are security-focused by construction.
var securityTools = map[string]bool{
	"semgrep":          true,
	"bandit":           true,
	"security-surface": true,
}

func inferCategory(ruleID, tool, message string) finding.Category {
	if securityTools[tool] {
		return finding.CategorySecurity
	}
	haystack := strings.ToLower(ruleID + " " + message)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(haystack, w) {
				return ck.category
			}
		}
	}
	return finding.CategoryOther
}
