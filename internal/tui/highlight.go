package tui

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/crosscheck/internal/patch"
)

// renderPatchPreview renders a patch preview with diff-colored markers
// and syntax-highlighted line content.
func renderPatchPreview(p *patch.Patch) []string {
	raw := strings.Split(strings.TrimRight(p.Preview(), "\n"), "\n")

	contents := make([]string, len(raw))
	for i, l := range raw {
		contents[i] = previewContent(l)
	}
	highlighted := highlightLines(p.File, contents)

	out := make([]string, 0, len(raw))
	for i, l := range raw {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"), strings.HasPrefix(l, "@@"):
			out = append(out, labelStyle.Render(l))
		case strings.HasPrefix(l, "+"):
			out = append(out, addedLineStyle.Render("+")+highlighted[i])
		case strings.HasPrefix(l, "-"):
			out = append(out, removedLineStyle.Render("-")+highlighted[i])
		default:
			out = append(out, " "+highlighted[i])
		}
	}
	return out
}

// previewContent strips the one-character diff marker, if present.
func previewContent(l string) string {
	if l == "" {
		return ""
	}
	switch l[0] {
	case '+', '-', ' ':
		return l[1:]
	}
	return l
}

// highlightLines applies syntax highlighting to source lines for a
// given filename, returning one styled string per input line. Files
// with no known lexer come back unchanged.
func highlightLines(filename string, lines []string) []string {
	lexer := lexerForFile(filename)
	if lexer == nil {
		return lines
	}

	it, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return lines
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	out := make([]string, 0, len(lines))
	var b strings.Builder
	for _, tok := range it.Tokens() {
		// Split tokens that span multiple lines
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				out = append(out, b.String())
				b.Reset()
			}
			if part == "" {
				continue
			}
			if c := tokenColor(style, tok.Type); c != "" {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render(part))
			} else {
				b.WriteString(part)
			}
		}
	}
	out = append(out, b.String())

	for len(out) < len(lines) {
		out = append(out, "")
	}
	return out
}

func lexerForFile(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return lexer
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
