// Package info provides the info tab: configuration, build details and
// recent pipeline runs.
package info

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/synthesis-tracker/internal/app"
	"github.com/j-veylop/synthesis-tracker/internal/config"
	"github.com/j-veylop/synthesis-tracker/internal/models"
)

// maxRuns is the number of runs listed in the runs card.
const maxRuns = 10

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Failures key.Binding
	Up       key.Binding
	Down     key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Failures: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "failed runs only"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	config   *config.Config
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	failedOnly bool
}

// New creates a new info model.
func New(state *app.State, cfg *config.Config) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Failures) {
			m.failedOnly = !m.failedOnly
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(keyMsg)
		return m, cmd
	}
	return m, nil
}

// visibleRuns returns the runs listed in the runs card, newest first.
func (m *Model) visibleRuns() []models.Run {
	runs := m.state.Runs()
	if m.failedOnly {
		runs = slices.DeleteFunc(runs, models.Run.Succeeded)
	}
	return runs[:min(len(runs), maxRuns)]
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Failures, m.keys.Up, m.keys.Down}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.Up, m.keys.Down}, {m.keys.Failures}}
}
