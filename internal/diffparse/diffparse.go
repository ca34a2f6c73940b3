// Package diffparse turns raw unified-diff text into a structured,
// immutable change representation.
package diffparse

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// ParseError reports a structurally invalid diff. Parsing is all or
// nothing: a ParseError aborts the whole change set.
type ParseError struct {
	Reason string // "invalid-diff" or "malformed-hunk"
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("diff parse error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("diff parse error (%s)", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LineKind tags a diff line as context, added or removed.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

func (k LineKind) String() string {
	switch k {
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return "context"
	}
}

// Line is a single diff line. NewLine is the line number in the new
// file, assigned only to context and added lines; removed lines carry
// zero. OldLine mirrors that for the old file.
type Line struct {
	Kind    LineKind
	Content string
	OldLine int
	NewLine int
}

// Hunk is one contiguous change region within a file.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Section  string
	Lines    []Line
}

// ContainsNewLine reports whether the hunk covers the given new-file line.
func (h Hunk) ContainsNewLine(line int) bool {
	for _, l := range h.Lines {
		if l.NewLine == line {
			return true
		}
	}
	return false
}

// NewSide returns the new-file side of the hunk (context + added lines).
func (h Hunk) NewSide() []Line {
	out := make([]Line, 0, len(h.Lines))
	for _, l := range h.Lines {
		if l.Kind != LineRemoved {
			out = append(out, l)
		}
	}
	return out
}

// ChangeKind describes what happened to a file.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRenamed  ChangeKind = "renamed"
)

// FileDiff is the parsed diff of a single file.
type FileDiff struct {
	Path    string // new path; for deletions, the old path
	OldPath string // set for renames
	Kind    ChangeKind
	Binary  bool
	Hunks   []Hunk
}

// MaxNewLine returns the highest new-file line number covered by any
// hunk, or zero for binary and deleted files.
func (f FileDiff) MaxNewLine() int {
	max := 0
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.NewLine > max {
				max = l.NewLine
			}
		}
	}
	return max
}

// HunkForNewLine returns the hunk covering the given new-file line, or nil.
func (f FileDiff) HunkForNewLine(line int) *Hunk {
	for i := range f.Hunks {
		if f.Hunks[i].ContainsNewLine(line) {
			return &f.Hunks[i]
		}
	}
	return nil
}

// ChangeSet is the structured representation of one parsed diff between
// two revisions. It is immutable once constructed.
type ChangeSet struct {
	RepoID  string
	BaseRev string
	HeadRev string
	Files   []FileDiff
}

// File returns the FileDiff for the given path, or nil.
func (cs *ChangeSet) File(path string) *FileDiff {
	for i := range cs.Files {
		if cs.Files[i].Path == path {
			return &cs.Files[i]
		}
	}
	return nil
}

// Empty reports whether the change set has no files.
func (cs *ChangeSet) Empty() bool { return len(cs.Files) == 0 }

// Stats returns aggregate added/removed line counts.
func (cs *ChangeSet) Stats() (files, added, removed int) {
	files = len(cs.Files)
	for _, f := range cs.Files {
		for _, h := range f.Hunks {
			for _, l := range h.Lines {
				switch l.Kind {
				case LineAdded:
					added++
				case LineRemoved:
					removed++
				}
			}
		}
	}
	return
}

// Parse reads unified diff text and returns a ChangeSet. Parsing is
// pure and deterministic: identical input yields an identical result.
func Parse(raw string) (*ChangeSet, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		reason := "invalid-diff"
		// gitdiff reports hunk-count mismatches as fragment errors.
		if s := err.Error(); strings.Contains(s, "fragment") || strings.Contains(s, "hunk") {
			reason = "malformed-hunk"
		}
		return nil, &ParseError{Reason: reason, Err: err}
	}

	cs := &ChangeSet{}
	for _, f := range parsed {
		fd := FileDiff{
			Binary: f.IsBinary,
			Kind:   changeKind(f),
		}
		fd.Path = f.NewName
		if fd.Path == "" {
			fd.Path = f.OldName
		}
		if f.IsRename {
			fd.OldPath = f.OldName
		}

		if !f.IsBinary {
			for _, frag := range f.TextFragments {
				hunk, err := buildHunk(frag)
				if err != nil {
					return nil, err
				}
				fd.Hunks = append(fd.Hunks, hunk)
			}
		}

		cs.Files = append(cs.Files, fd)
	}

	return cs, nil
}

func changeKind(f *gitdiff.File) ChangeKind {
	switch {
	case f.IsNew:
		return ChangeAdded
	case f.IsDelete:
		return ChangeDeleted
	case f.IsRename:
		return ChangeRenamed
	default:
		return ChangeModified
	}
}

// buildHunk converts a gitdiff fragment, assigning old/new line numbers
// by walking the lines. Declared counts that disagree with the actual
// content fail the parse.
func buildHunk(frag *gitdiff.TextFragment) (Hunk, error) {
	h := Hunk{
		OldStart: int(frag.OldPosition),
		OldLines: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewLines: int(frag.NewLines),
		Section:  frag.Comment,
	}

	oldN := h.OldStart
	newN := h.NewStart
	var gotOld, gotNew int

	for _, l := range frag.Lines {
		content := strings.TrimSuffix(l.Line, "\n")
		switch l.Op {
		case gitdiff.OpAdd:
			h.Lines = append(h.Lines, Line{Kind: LineAdded, Content: content, NewLine: newN})
			newN++
			gotNew++
		case gitdiff.OpDelete:
			h.Lines = append(h.Lines, Line{Kind: LineRemoved, Content: content, OldLine: oldN})
			oldN++
			gotOld++
		default:
			h.Lines = append(h.Lines, Line{Kind: LineContext, Content: content, OldLine: oldN, NewLine: newN})
			oldN++
			newN++
			gotOld++
			gotNew++
		}
	}

	if gotOld != h.OldLines || gotNew != h.NewLines {
		return Hunk{}, &ParseError{
			Reason: "malformed-hunk",
			Err: fmt.Errorf("hunk at -%d,+%d declares %d/%d lines but contains %d/%d",
				h.OldStart, h.NewStart, h.OldLines, h.NewLines, gotOld, gotNew),
		}
	}

	return h, nil
}
