package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/crosscheck/internal/engine"
	"github.com/sprite-ai/crosscheck/internal/finding"
	"github.com/sprite-ai/crosscheck/internal/policy"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	listWidth := m.listWidth()
	detailWidth := m.width - listWidth - 1

	list := m.renderList(listWidth, m.height-2)
	detail := m.renderDetailPane(detailWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) listWidth() int {
	w := m.width * 2 / 5
	if w < 30 {
		w = 30
	}
	if w > m.width-20 {
		w = m.width / 2
	}
	return w
}

func (m Model) renderList(width, height int) string {
	var b strings.Builder

	if len(m.result.Findings) == 0 {
		b.WriteString(labelStyle.Render("No findings."))
	}

	for i, fr := range m.result.Findings {
		f := fr.Finding
		badge := severityBadge(f.Severity)
		line := fmt.Sprintf("%s %s:%d %s", badge, f.File, f.Line, dispositionIcon(fr.Disposition))

		style := listItemStyle
		if i == m.index {
			style = listItemSelectedStyle
		}
		b.WriteString(style.Width(width - 4).Render(truncate(line, width-4)))
		if i < len(m.result.Findings)-1 {
			b.WriteByte('\n')
		}
	}

	return listStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderDetailPane(width, height int) string {
	innerHeight := height - 2
	visible := innerHeight
	if visible < 1 {
		visible = 1
	}

	lines := m.detail
	if m.showDiags {
		lines = renderDiagnostics(m.result)
	}

	end := m.scroll + visible
	if end > len(lines) {
		end = len(lines)
	}
	start := m.scroll
	if start > end {
		start = end
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(truncate(lines[i], width-4))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}

	return detailStyle.Width(width).Height(innerHeight).Render(b.String())
}

// renderDetail builds the detail lines for one finding result.
func renderDetail(fr engine.FindingResult) []string {
	f := fr.Finding
	var lines []string

	lines = append(lines, headerStyle.Render(fmt.Sprintf("%s:%d", f.File, f.Line)))
	lines = append(lines,
		labelStyle.Render("severity    ")+severityBadge(f.Severity),
		labelStyle.Render("category    ")+string(f.Category),
		labelStyle.Render("confidence  ")+fmt.Sprintf("%.2f", f.Confidence),
		labelStyle.Render("sources     ")+sourceList(f.Sources),
		labelStyle.Render("disposition ")+dispositionBadge(fr.Disposition),
	)
	if fr.PatchReason != "" {
		lines = append(lines, labelStyle.Render("patch       ")+fr.PatchStatus+": "+fr.PatchReason)
	} else if fr.Patch != nil {
		lines = append(lines, labelStyle.Render("patch       ")+fr.PatchStatus)
	}
	lines = append(lines, "")

	lines = append(lines, wrap(f.Message, 76)...)

	if fr.Patch != nil {
		lines = append(lines, "", headerStyle.Render("Proposed patch"))
		lines = append(lines, renderPatchPreview(fr.Patch)...)
	}

	if len(f.Members) > 1 {
		lines = append(lines, "", headerStyle.Render("Corroborating reports"))
		for _, member := range f.Members {
			lines = append(lines, fmt.Sprintf("  [%s] %s:%d %s", member.Source, member.File, member.Line,
				truncate(member.Message, 60)))
		}
	}

	return lines
}

func renderDiagnostics(result *engine.Result) []string {
	if len(result.Diagnostics) == 0 {
		return []string{labelStyle.Render("No diagnostics.")}
	}
	lines := []string{headerStyle.Render("Diagnostics"), ""}
	for _, d := range result.Diagnostics {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render(d.Stage+":"), d.Message))
	}
	return lines
}

func (m Model) renderStatusBar() string {
	s := m.result.Summarize()
	left := fmt.Sprintf(" %s  finding %d/%d", strings.ToLower(string(m.result.Mode)),
		m.index+1, len(m.result.Findings))
	right := fmt.Sprintf("%d high %d med %d low  %dms  ? help ", s.High, s.Medium, s.Low, m.result.Timing.TotalMs)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("crosscheck: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Previous finding"},
		{"↓/j", "Next finding"},
		{"PgUp/K", "Scroll detail up"},
		{"PgDn/J", "Scroll detail down"},
		{"d", "Toggle diagnostics"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	return b.String()
}

func severityBadge(s finding.Severity) string {
	switch s {
	case finding.SeverityHigh:
		return severityHighStyle.Render("HIGH")
	case finding.SeverityMedium:
		return severityMediumStyle.Render("MED ")
	default:
		return severityLowStyle.Render("LOW ")
	}
}

func dispositionBadge(d policy.Disposition) string {
	switch d {
	case policy.DispositionAutoApply:
		return dispositionApplyStyle.Render(string(d))
	case policy.DispositionRequestChanges:
		return dispositionChangesStyle.Render(string(d))
	default:
		return dispositionCommentStyle.Render(string(d))
	}
}

func dispositionIcon(d policy.Disposition) string {
	switch d {
	case policy.DispositionAutoApply:
		return dispositionApplyStyle.Render("✓")
	case policy.DispositionRequestChanges:
		return dispositionChangesStyle.Render("±")
	default:
		return dispositionCommentStyle.Render("·")
	}
}

func sourceList(sources []finding.Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, "+")
}

func truncate(s string, max int) string {
	if max <= 0 || lipgloss.Width(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
