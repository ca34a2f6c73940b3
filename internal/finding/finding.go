// Package finding defines the canonical finding schema shared across crosscheck.
package finding

import (
	"crypto/sha256"
	"fmt"
)

// Severity levels, ordered LOW < MEDIUM < HIGH.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Rank returns a numeric rank for ordering (higher = more severe).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Category classifies what kind of issue a finding reports.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryBug         Category = "bug"
	CategoryStyle       Category = "style"
	CategoryPerformance Category = "performance"
	CategoryOther       Category = "other"
)

// ValidCategory reports whether c is one of the canonical categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategorySecurity, CategoryBug, CategoryStyle, CategoryPerformance, CategoryOther:
		return true
	}
	return false
}

// Source identifies which kind of analyzer produced a finding.
type Source string

const (
	SourceStatic Source = "static"
	SourceModel  Source = "model"
)

// RawFinding is the heterogeneous shape emitted by analyzer adapters
// before normalization. Severity and category are free-form strings as
// reported by the tool or model.
type RawFinding struct {
	Source     Source
	Tool       string
	RuleID     string
	Severity   string
	Category   string
	File       string
	Line       int
	Message    string
	Suggestion string

	// Confidence is only meaningful when HasConfidence is set; static
	// tools that report no score default to 1.0 during normalization.
	Confidence    float64
	HasConfidence bool
}

// Finding is a single normalized issue reported by one analyzer.
type Finding struct {
	ID           string   `json:"id"`
	Source       Source   `json:"source"`
	Tool         string   `json:"tool,omitempty"`
	RuleID       string   `json:"rule_id,omitempty"`
	File         string   `json:"file"`
	Line         int      `json:"line"`
	Severity     Severity `json:"severity"`
	Category     Category `json:"category"`
	Message      string   `json:"message"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
	Confidence   float64  `json:"confidence"`
}

// ContentID derives a stable identifier from the finding's content.
// Analyzer-supplied IDs are not trusted across sources, so identity is
// a hash of file, line, rule and message.
func ContentID(file string, line int, ruleID, message string) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%s:%s", file, line, ruleID, message))
	return fmt.Sprintf("%x", h[:6])
}

// MergedFinding combines one or more corroborating findings that share
// a match key. Members is never empty.
type MergedFinding struct {
	ID           string    `json:"id"`
	File         string    `json:"file"`
	Line         int       `json:"line"`
	Severity     Severity  `json:"severity"`
	Category     Category  `json:"category"`
	Message      string    `json:"message"`
	SuggestedFix string    `json:"suggested_fix,omitempty"`
	Confidence   float64   `json:"confidence"`
	Sources      []Source  `json:"sources"`
	Members      []Finding `json:"members"`
}

// HasSource reports whether any member came from the given source.
func (m MergedFinding) HasSource(src Source) bool {
	for _, s := range m.Sources {
		if s == src {
			return true
		}
	}
	return false
}
