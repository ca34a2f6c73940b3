// Package patch synthesizes proposed fixes from merged findings and
// verifies them against syntax, size and policy constraints.
package patch

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
)

// SynthesisError reports why no patch could be built for a finding.
// The finding itself is retained, it just stays comment-only.
type SynthesisError struct {
	Reason string // "no-fix" or "no-hunk"
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("patch synthesis failed: %s", e.Reason)
}

// Patch is a proposed edit to a single file, replacing the finding's
// line within its owning hunk while preserving surrounding context.
type Patch struct {
	File      string `json:"file"`
	FindingID string `json:"finding_id"`
	NewStart  int    `json:"new_start"`
	// Before and After are the new-file side of the owning hunk,
	// without and with the fix applied.
	Before []string `json:"-"`
	After  []string `json:"-"`
	// LOC is the number of changed lines (removed + inserted).
	LOC int `json:"loc"`
}

// Preview renders the patch as a unified diff for human review.
func (p *Patch) Preview() string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        appendNewlines(p.Before),
		B:        appendNewlines(p.After),
		FromFile: "a/" + p.File,
		ToFile:   "b/" + p.File,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}

func appendNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

// Synthesize builds a patch for a merged finding carrying a suggested
// fix. The replacement never spans multiple files or touches lines
// outside the finding's owning hunk.
func Synthesize(m finding.MergedFinding, cs *diffparse.ChangeSet) (*Patch, error) {
	fix := strings.TrimRight(m.SuggestedFix, "\n")
	if strings.TrimSpace(fix) == "" {
		return nil, &SynthesisError{Reason: "no-fix"}
	}

	fd := cs.File(m.File)
	if fd == nil {
		return nil, &SynthesisError{Reason: "no-hunk"}
	}
	hunk := fd.HunkForNewLine(m.Line)
	if hunk == nil {
		return nil, &SynthesisError{Reason: "no-hunk"}
	}

	fixLines := strings.Split(fix, "\n")

	var before, after []string
	replaced := false
	for _, l := range hunk.NewSide() {
		before = append(before, l.Content)
		if l.NewLine == m.Line {
			after = append(after, fixLines...)
			replaced = true
		} else {
			after = append(after, l.Content)
		}
	}
	if !replaced {
		return nil, &SynthesisError{Reason: "no-hunk"}
	}

	return &Patch{
		File:      m.File,
		FindingID: m.ID,
		NewStart:  hunk.NewStart,
		Before:    before,
		After:     after,
		LOC:       1 + len(fixLines),
	}, nil
}
