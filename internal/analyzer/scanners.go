package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
)

// BuiltinScanners returns the scanners that need no external tools.
func BuiltinScanners() []Scanner {
	return []Scanner{
		&SecurityScanner{},
		&AntiPatternScanner{},
	}
}

// Security-sensitive patterns grouped by rule, checked against added lines.
var securityRules = []struct {
	rule     string
	severity string
	patterns []*regexp.Regexp
}{
	{
		rule:     "auth-surface",
		severity: "high",
		patterns: compilePatterns(
			`(?i)(password|credential|token|jwt|oauth|session.?key)`,
			`(?i)(is.?admin|access.?control|rbac|authorize)`,
		),
	},
	{
		rule:     "sql-exec",
		severity: "high",
		patterns: compilePatterns(
			`(?i)(db\.exec|db\.query|cursor\.execute|raw.?sql)`,
			`(?i)(\bSELECT\b|\bINSERT\b|\bUPDATE\b|\bDELETE\b|\bDROP\b)\s.*(%s|%v|\+\s*\w|f")`,
		),
	},
	{
		rule:     "hardcoded-secret",
		severity: "high",
		patterns: compilePatterns(
			`(?i)(api.?key|secret|password|token)\s*[:=]\s*["'][^"']{8,}`,
		),
	},
	{
		rule:     "subprocess-exec",
		severity: "medium",
		patterns: compilePatterns(
			`(?i)(exec\.Command|os\.system|subprocess|child_process|shell_exec)`,
			`(?i)(\beval\(|\bexec\()`,
		),
	},
	{
		rule:     "insecure-tls",
		severity: "medium",
		patterns: compilePatterns(
			`(?i)(InsecureSkipVerify|verify.?ssl.*false|disable.?ssl)`,
		),
	},
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	var compiled []*regexp.Regexp
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// SecurityScanner flags additions that touch security-sensitive code.
type SecurityScanner struct{}

func (*SecurityScanner) Name() string { return "security-surface" }

func (*SecurityScanner) Scan(_ context.Context, cs *diffparse.ChangeSet) ([]finding.RawFinding, error) {
	var out []finding.RawFinding

	forEachAddedLine(cs, func(path string, line diffparse.Line) {
		trimmed := strings.TrimSpace(line.Content)
		if isComment(trimmed) {
			return
		}
		for _, rule := range securityRules {
			for _, re := range rule.patterns {
				if re.MatchString(line.Content) {
					out = append(out, finding.RawFinding{
						Tool:     "security-surface",
						RuleID:   rule.rule,
						Severity: rule.severity,
						Category: "security",
						File:     path,
						Line:     line.NewLine,
						Message:  fmt.Sprintf("security-sensitive change (%s): %s", rule.rule, trimmed),
					})
					break
				}
			}
		}
	})

	return dedupe(out), nil
}

var (
	broadExceptPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)except\s*:`),
		regexp.MustCompile(`(?i)except\s+Exception\s*:`),
		regexp.MustCompile(`(?i)catch\s*\(\s*(Exception|Error|e)\s*\)`),
		regexp.MustCompile(`(?i)rescue\s+StandardError`),
		regexp.MustCompile(`\.catch\(\s*(?:_|err|\(\s*\))\s*=>`),
	}
	todoPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME|HACK|XXX)\b`)
)

// AntiPatternScanner detects sloppy additions: catch-all exception
// handling and leftover task markers.
type AntiPatternScanner struct{}

func (*AntiPatternScanner) Name() string { return "anti-pattern" }

func (*AntiPatternScanner) Scan(_ context.Context, cs *diffparse.ChangeSet) ([]finding.RawFinding, error) {
	var out []finding.RawFinding

	forEachAddedLine(cs, func(path string, line diffparse.Line) {
		trimmed := strings.TrimSpace(line.Content)
		for _, re := range broadExceptPatterns {
			if re.MatchString(line.Content) {
				out = append(out, finding.RawFinding{
					Tool:     "anti-pattern",
					RuleID:   "broad-exception",
					Severity: "medium",
					Category: "bug",
					File:     path,
					Line:     line.NewLine,
					Message:  "broad exception handling: " + trimmed,
				})
				break
			}
		}
		if todoPattern.MatchString(line.Content) && isComment(trimmed) {
			out = append(out, finding.RawFinding{
				Tool:     "anti-pattern",
				RuleID:   "leftover-todo",
				Severity: "low",
				Category: "style",
				File:     path,
				Line:     line.NewLine,
				Message:  "leftover task marker: " + trimmed,
			})
		}
	})

	return dedupe(out), nil
}

func forEachAddedLine(cs *diffparse.ChangeSet, fn func(path string, line diffparse.Line)) {
	for _, f := range cs.Files {
		if f.Binary || f.Kind == diffparse.ChangeDeleted {
			continue
		}
		for _, h := range f.Hunks {
			for _, l := range h.Lines {
				if l.Kind == diffparse.LineAdded {
					fn(f.Path, l)
				}
			}
		}
	}
}

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "*") ||
		strings.HasPrefix(trimmed, "/*")
}

// dedupe removes findings with the same file, line and rule.
func dedupe(in []finding.RawFinding) []finding.RawFinding {
	seen := make(map[string]bool)
	var out []finding.RawFinding
	for _, f := range in {
		key := fmt.Sprintf("%s:%d:%s", f.File, f.Line, f.RuleID)
		if !seen[key] {
			seen[key] = true
			out = append(out, f)
		}
	}
	return out
}
