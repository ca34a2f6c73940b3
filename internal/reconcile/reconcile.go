// Package reconcile deduplicates findings across analyzer sources and
// computes corroborated confidence for the merged result.
package reconcile

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/sprite-ai/crosscheck/internal/finding"
)

// DefaultBucketWidth merges findings within ±2 lines of each other.
const DefaultBucketWidth = 2

// Options tunes the match key.
type Options struct {
	// BucketWidth is the half-width of the line bucket; findings whose
	// lines fall in the same bucket of 2w+1 lines share a key. Zero
	// means DefaultBucketWidth.
	BucketWidth int
}

type matchKey struct {
	file     string
	bucket   int
	category finding.Category
}

// Merge groups findings by (file, line bucket, category) and resolves
// each group into one MergedFinding. The result is ordered by file
// ascending, line ascending, severity descending. Merge is independent
// of input order.
func Merge(findings []finding.Finding, opts Options) []finding.MergedFinding {
	width := opts.BucketWidth
	if width == 0 {
		width = DefaultBucketWidth
	}
	window := 2*width + 1

	groups := make(map[matchKey][]finding.Finding)
	for _, f := range findings {
		key := matchKey{file: f.File, bucket: f.Line / window, category: f.Category}
		groups[key] = append(groups[key], f)
	}

	merged := make([]finding.MergedFinding, 0, len(groups))
	for _, members := range groups {
		merged = append(merged, resolve(members))
	}

	sortMerged(merged)
	return merged
}

// Singletons wraps each finding in its own MergedFinding without any
// cross-merging, for single-source modes. Ordering matches Merge.
func Singletons(findings []finding.Finding) []finding.MergedFinding {
	merged := make([]finding.MergedFinding, 0, len(findings))
	for _, f := range findings {
		merged = append(merged, resolve([]finding.Finding{f}))
	}
	sortMerged(merged)
	return merged
}

// resolve combines a group of corroborating findings. Members are first
// put in canonical order (static before model, then line, then id) so
// the result does not depend on arrival order.
func resolve(members []finding.Finding) finding.MergedFinding {
	members = append([]finding.Finding(nil), members...)
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Source != b.Source {
			return a.Source == finding.SourceStatic
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.ID < b.ID
	})

	m := finding.MergedFinding{
		File:     members[0].File,
		Category: members[0].Category,
		Severity: finding.SeverityLow,
		Members:  members,
	}

	// Resolved confidence treats members as independent corroborating
	// signals: 1 - product(1 - c_i). Two sources agreeing must score
	// higher than either alone.
	miss := 1.0
	var messages []string
	seenMsg := make(map[string]bool)
	seenSrc := make(map[finding.Source]bool)
	m.Line = members[0].Line

	for _, f := range members {
		m.Severity = finding.MaxSeverity(m.Severity, f.Severity)
		miss *= 1 - f.Confidence
		if f.Line < m.Line {
			m.Line = f.Line
		}
		if !seenMsg[f.Message] {
			seenMsg[f.Message] = true
			messages = append(messages, f.Message)
		}
		if !seenSrc[f.Source] {
			seenSrc[f.Source] = true
			m.Sources = append(m.Sources, f.Source)
		}
		if m.SuggestedFix == "" && f.SuggestedFix != "" {
			m.SuggestedFix = f.SuggestedFix
		}
	}

	m.Confidence = 1 - miss
	if m.Confidence < 0 {
		m.Confidence = 0
	}
	if m.Confidence > 1 {
		m.Confidence = 1
	}
	m.Message = strings.Join(messages, "; ")
	m.ID = mergedID(members)

	return m
}

// mergedID hashes the sorted member ids so the merged identity is
// stable regardless of arrival order.
func mergedID(members []finding.Finding) string {
	ids := make([]string, len(members))
	for i, f := range members {
		ids[i] = f.ID
	}
	sort.Strings(ids)
	h := sha256.Sum256([]byte(strings.Join(ids, "|")))
	return fmt.Sprintf("%x", h[:6])
}

func sortMerged(merged []finding.MergedFinding) {
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		return a.ID < b.ID
	})
}
