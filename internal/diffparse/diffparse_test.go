package diffparse

import (
	"errors"
	"testing"
)

const modifiedDiff = `diff --git a/auth/login.py b/auth/login.py
index 1111111..2222222 100644
--- a/auth/login.py
+++ b/auth/login.py
@@ -7,7 +7,8 @@ def login():
 context7
 context8
 context9
-old10
+new10
+new11
 context12
 context13
 context14
`

func TestParseModifiedFile(t *testing.T) {
	cs, err := Parse(modifiedDiff)
	if err != nil {
		t.Fatal(err)
	}

	if len(cs.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(cs.Files))
	}
	f := cs.Files[0]
	if f.Path != "auth/login.py" {
		t.Errorf("expected path auth/login.py, got %q", f.Path)
	}
	if f.Kind != ChangeModified {
		t.Errorf("expected modified, got %s", f.Kind)
	}
	if len(f.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(f.Hunks))
	}

	h := f.Hunks[0]
	if h.OldStart != 7 || h.OldLines != 7 || h.NewStart != 7 || h.NewLines != 8 {
		t.Errorf("unexpected hunk header: -%d,%d +%d,%d", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
	}
	if h.Section != "def login():" {
		t.Errorf("unexpected section %q", h.Section)
	}
}

func TestNewLineNumbering(t *testing.T) {
	cs, err := Parse(modifiedDiff)
	if err != nil {
		t.Fatal(err)
	}

	h := cs.Files[0].Hunks[0]

	// New-file numbers are assigned only to context/added lines.
	want := []struct {
		kind    LineKind
		newLine int
	}{
		{LineContext, 7},
		{LineContext, 8},
		{LineContext, 9},
		{LineRemoved, 0},
		{LineAdded, 10},
		{LineAdded, 11},
		{LineContext, 12},
		{LineContext, 13},
		{LineContext, 14},
	}
	if len(h.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(h.Lines))
	}
	for i, w := range want {
		if h.Lines[i].Kind != w.kind || h.Lines[i].NewLine != w.newLine {
			t.Errorf("line %d: got (%s, %d), want (%s, %d)",
				i, h.Lines[i].Kind, h.Lines[i].NewLine, w.kind, w.newLine)
		}
	}

	if got := cs.Files[0].MaxNewLine(); got != 14 {
		t.Errorf("MaxNewLine = %d, want 14", got)
	}
	if hunk := cs.Files[0].HunkForNewLine(10); hunk == nil {
		t.Error("expected hunk covering line 10")
	}
	if hunk := cs.Files[0].HunkForNewLine(99); hunk != nil {
		t.Error("expected no hunk covering line 99")
	}
}

const newFileDiff = `diff --git a/scripts/setup.py b/scripts/setup.py
new file mode 100644
--- /dev/null
+++ b/scripts/setup.py
@@ -0,0 +1,3 @@
+import os
+token = os.environ.get("TOKEN")
+print(token)
`

func TestParseNewFile(t *testing.T) {
	cs, err := Parse(newFileDiff)
	if err != nil {
		t.Fatal(err)
	}

	f := cs.Files[0]
	if f.Kind != ChangeAdded {
		t.Errorf("expected added, got %s", f.Kind)
	}
	if f.Path != "scripts/setup.py" {
		t.Errorf("unexpected path %q", f.Path)
	}
	for i, l := range f.Hunks[0].Lines {
		if l.Kind != LineAdded || l.NewLine != i+1 {
			t.Errorf("line %d: got (%s, %d)", i, l.Kind, l.NewLine)
		}
	}
}

const binaryDiff = `diff --git a/assets/logo.png b/assets/logo.png
index 1111111..2222222 100644
Binary files a/assets/logo.png and b/assets/logo.png differ
`

func TestParseBinaryFile(t *testing.T) {
	cs, err := Parse(binaryDiff)
	if err != nil {
		t.Fatal(err)
	}

	f := cs.Files[0]
	if !f.Binary {
		t.Error("expected binary flag")
	}
	if len(f.Hunks) != 0 {
		t.Errorf("binary file should have no hunks, got %d", len(f.Hunks))
	}
}

const renameDiff = `diff --git a/old/name.go b/new/name.go
similarity index 100%
rename from old/name.go
rename to new/name.go
`

func TestParseRename(t *testing.T) {
	cs, err := Parse(renameDiff)
	if err != nil {
		t.Fatal(err)
	}

	f := cs.Files[0]
	if f.Kind != ChangeRenamed {
		t.Errorf("expected renamed, got %s", f.Kind)
	}
	if f.Path != "new/name.go" || f.OldPath != "old/name.go" {
		t.Errorf("unexpected paths: %q <- %q", f.Path, f.OldPath)
	}
}

const truncatedHunkDiff = `diff --git a/a.go b/a.go
index 1111111..2222222 100644
--- a/a.go
+++ b/a.go
@@ -1,3 +1,3 @@
 context
+added
`

func TestParseMalformedHunk(t *testing.T) {
	_, err := Parse(truncatedHunkDiff)
	if err == nil {
		t.Fatal("expected error for miscounted hunk")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if perr.Reason != "malformed-hunk" {
		t.Errorf("expected reason malformed-hunk, got %q", perr.Reason)
	}
}

func TestParseDeterministic(t *testing.T) {
	a, err := Parse(modifiedDiff)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(modifiedDiff)
	if err != nil {
		t.Fatal(err)
	}
	if Format(a) != Format(b) {
		t.Error("identical input produced different change sets")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, raw := range []string{modifiedDiff, newFileDiff} {
		first, err := Parse(raw)
		if err != nil {
			t.Fatal(err)
		}
		second, err := Parse(Format(first))
		if err != nil {
			t.Fatalf("re-parsing formatted diff: %v\nformatted:\n%s", err, Format(first))
		}

		if len(first.Files) != len(second.Files) {
			t.Fatalf("file count changed: %d != %d", len(first.Files), len(second.Files))
		}
		for i := range first.Files {
			if first.Files[i].Path != second.Files[i].Path {
				t.Errorf("path changed: %q != %q", first.Files[i].Path, second.Files[i].Path)
			}
		}

		f1, a1, r1 := first.Stats()
		f2, a2, r2 := second.Stats()
		if f1 != f2 || a1 != a2 || r1 != r2 {
			t.Errorf("stats changed: (%d,%d,%d) != (%d,%d,%d)", f1, a1, r1, f2, a2, r2)
		}
	}
}

func TestStats(t *testing.T) {
	cs, err := Parse(modifiedDiff)
	if err != nil {
		t.Fatal(err)
	}
	files, added, removed := cs.Stats()
	if files != 1 || added != 2 || removed != 1 {
		t.Errorf("Stats() = (%d, %d, %d), want (1, 2, 1)", files, added, removed)
	}
}
