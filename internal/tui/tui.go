// Package tui implements the Bubble Tea browser for review results.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/crosscheck/internal/engine"
)

// Model is the top-level Bubble Tea model for crosscheck results.
type Model struct {
	result *engine.Result

	// UI state
	width  int
	height int

	index     int // currently selected finding
	scroll    int // scroll position within the detail pane
	showDiags bool
	showHelp  bool

	// Rendered detail lines for the selected finding
	detail []string
}

// New creates a TUI model over an analysis result.
func New(result *engine.Result) Model {
	m := Model{result: result}
	m.updateDetail()
	return m
}

func (m *Model) updateDetail() {
	m.scroll = 0
	if len(m.result.Findings) == 0 {
		m.detail = nil
		return
	}
	m.detail = renderDetail(m.result.Findings[m.index])
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.index < len(m.result.Findings)-1 {
				m.index++
				m.updateDetail()
			}

		case key.Matches(msg, keys.Up):
			if m.index > 0 {
				m.index--
				m.updateDetail()
			}

		case key.Matches(msg, keys.ScrollDown):
			if m.scroll < len(m.detail)-1 {
				m.scroll++
			}

		case key.Matches(msg, keys.ScrollUp):
			if m.scroll > 0 {
				m.scroll--
			}

		case key.Matches(msg, keys.Diags):
			m.showDiags = !m.showDiags

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	return m, nil
}

// Run starts the results browser.
func Run(result *engine.Result) error {
	p := tea.NewProgram(New(result), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
