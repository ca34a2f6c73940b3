package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/crosscheck/internal/engine"
	"github.com/sprite-ai/crosscheck/internal/finding"
	"github.com/sprite-ai/crosscheck/internal/patch"
	"github.com/sprite-ai/crosscheck/internal/policy"
)

func testResult() *engine.Result {
	return &engine.Result{
		RunID: "test-run",
		Mode:  engine.ModeHybrid,
		Findings: []engine.FindingResult{
			{
				Finding: finding.MergedFinding{
					ID:         "f1",
					File:       "server/query.py",
					Line:       7,
					Severity:   finding.SeverityHigh,
					Category:   finding.CategorySecurity,
					Message:    "SQL built from user input",
					Confidence: 0.92,
					Sources:    []finding.Source{finding.SourceStatic, finding.SourceModel},
				},
				PatchStatus: engine.PatchNotSynthesized,
				Disposition: policy.DispositionRequestChanges,
			},
			{
				Finding: finding.MergedFinding{
					ID:         "f2",
					File:       "util/format.py",
					Line:       3,
					Severity:   finding.SeverityLow,
					Category:   finding.CategoryStyle,
					Message:    "leftover task marker",
					Confidence: 1.0,
					Sources:    []finding.Source{finding.SourceStatic},
				},
				PatchStatus: engine.PatchNotSynthesized,
				Disposition: policy.DispositionCommentOnly,
			},
		},
		Diagnostics: []engine.Diagnostic{
			{Stage: "model", Message: "source unavailable: connection refused"},
		},
		Policy: policy.Default(),
	}
}

func setupModel(t *testing.T) Model {
	t.Helper()
	m := New(testResult())
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return newM.(Model)
}

func TestModelInit(t *testing.T) {
	m := setupModel(t)

	if m.index != 0 {
		t.Errorf("expected index 0, got %d", m.index)
	}
	if len(m.detail) == 0 {
		t.Error("expected detail lines to be rendered")
	}
}

func TestNavigation(t *testing.T) {
	m := setupModel(t)

	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = newM.(Model)
	if m.index != 1 {
		t.Errorf("expected index 1 after next, got %d", m.index)
	}

	// Move past end — should stay
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = newM.(Model)
	if m.index != 1 {
		t.Errorf("expected index 1 at end, got %d", m.index)
	}

	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = newM.(Model)
	if m.index != 0 {
		t.Errorf("expected index 0 after prev, got %d", m.index)
	}
}

func TestScrolling(t *testing.T) {
	m := setupModel(t)

	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'J'}})
	m = newM.(Model)
	if m.scroll != 1 {
		t.Errorf("expected scroll 1, got %d", m.scroll)
	}

	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'K'}})
	m = newM.(Model)
	if m.scroll != 0 {
		t.Errorf("expected scroll 0, got %d", m.scroll)
	}

	// Can't scroll above the top
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'K'}})
	m = newM.(Model)
	if m.scroll != 0 {
		t.Errorf("expected scroll 0 at top, got %d", m.scroll)
	}
}

func TestSelectionResetsScroll(t *testing.T) {
	m := setupModel(t)

	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'J'}})
	m = newM.(Model)
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = newM.(Model)
	if m.scroll != 0 {
		t.Errorf("selecting a finding should reset scroll, got %d", m.scroll)
	}
}

func TestViewRenders(t *testing.T) {
	m := setupModel(t)

	view := m.View()
	if view == "" {
		t.Error("expected non-empty view")
	}
	if !strings.Contains(view, "server/query.py") {
		t.Error("expected view to contain the finding's file")
	}
	if !strings.Contains(view, "SQL built from user input") {
		t.Error("expected view to contain the finding's message")
	}
}

func TestDiagnosticsToggle(t *testing.T) {
	m := setupModel(t)

	if m.showDiags {
		t.Error("diagnostics should start hidden")
	}

	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = newM.(Model)
	if !m.showDiags {
		t.Error("expected diagnostics visible after toggle")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Error("expected diagnostics view to show the degradation")
	}

	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = newM.(Model)
	if m.showDiags {
		t.Error("expected diagnostics hidden after second toggle")
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t)

	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = newM.(Model)
	if !m.showHelp {
		t.Error("expected help to be shown")
	}
}

func TestPatchPreviewRendered(t *testing.T) {
	result := testResult()
	result.Findings[0].Patch = &patch.Patch{
		File:   "server/query.py",
		Before: []string{`cur.execute(q + user_id)`},
		After:  []string{`cur.execute(q, (user_id,))`},
		LOC:    2,
	}
	result.Findings[0].PatchStatus = engine.PatchVerified

	m := New(result)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	m = newM.(Model)

	view := m.View()
	if !strings.Contains(view, "Proposed patch") {
		t.Error("expected patch preview header")
	}
}

func TestEmptyResult(t *testing.T) {
	m := New(&engine.Result{Mode: engine.ModeStaticOnly, Policy: policy.Default()})
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = newM.(Model)

	if m.View() == "" {
		t.Error("expected non-empty view for empty result")
	}

	// Navigation on an empty result must not panic.
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = newM.(Model)
	if m.index != 0 {
		t.Errorf("expected index 0, got %d", m.index)
	}
}
