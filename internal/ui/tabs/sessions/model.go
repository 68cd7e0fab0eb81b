// Package sessions provides the session list tab.
package sessions

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/synthesis-tracker/internal/app"
	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/ui/components"
	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
)

type keyMap struct {
	Details key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Details: key.NewBinding(
			key.WithKeys("enter", "d"),
			key.WithHelp("enter", "toggle details"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next"),
		),
	}
}

// Model represents the sessions tab state.
type Model struct {
	state       *app.State
	table       table.Model
	spinner     components.LoadingSpinner
	keys        keyMap
	sessions    []models.Session
	width       int
	height      int
	topicWidth  int
	showDetails bool
}

// New creates the sessions tab.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(24)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:       state,
		table:       t,
		spinner:     components.NewSpinner("Loading sessions..."),
		keys:        defaultKeyMap(),
		topicWidth:  24,
		showDetails: true,
	}
}

func columns(topicWidth int) []table.Column {
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Day", Width: 9},
		{Title: "Time", Width: 8},
		{Title: "Minutes", Width: 7},
		{Title: "Topic", Width: topicWidth},
		{Title: "Activities", Width: 10},
	}
}

// Init initializes the sessions tab.
func (m *Model) Init() tea.Cmd {
	m.refresh()
	return nil
}

// Update handles messages for the sessions tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.DatasetLoadedMsg:
		m.refresh()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Details) {
			m.showDetails = !m.showDetails
			m.resizeTable()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

// newestFirst orders sessions by date, latest first. Sessions sharing a
// date, or without one, keep their reverse dataset order.
func newestFirst(sessions []models.Session) []models.Session {
	out := slices.Clone(sessions)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b models.Session) int {
		return cmp.Compare(b.Date, a.Date)
	})
	return out
}

// refresh rebuilds the rows from the dataset held in state.
func (m *Model) refresh() {
	m.sessions = newestFirst(m.state.Dataset().Sessions)

	rows := make([]table.Row, 0, len(m.sessions))
	for _, s := range m.sessions {
		date := s.Date
		if date == "" {
			date = "-"
		}
		rows = append(rows, table.Row{
			date,
			s.Day,
			s.Time,
			fmt.Sprintf("%.1f", s.DurationMinutes),
			ansi.Truncate(s.Topic, m.topicWidth, "…"),
			fmt.Sprintf("%d", len(s.Activities)),
		})
	}

	m.table.SetRows(rows)
	if c := m.table.Cursor(); len(rows) > 0 && (c < 0 || c >= len(rows)) {
		m.table.SetCursor(min(max(c, 0), len(rows)-1))
	}
}

// Selected returns the session under the cursor, or nil.
func (m *Model) Selected() *models.Session {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.sessions) {
		return nil
	}
	return &m.sessions[i]
}

// SetSize sets the available size for the sessions tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	// Fixed columns and cell padding take roughly 60 cells.
	m.topicWidth = min(max(width-66, 16), 60)
	m.table.SetColumns(columns(m.topicWidth))
	m.resizeTable()
	m.refresh()
}

func (m *Model) resizeTable() {
	reserved := 8
	if m.showDetails {
		reserved += detailHeight
	}
	m.table.SetHeight(max(m.height-reserved, 3))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Details}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.Up, m.keys.Down}, {m.keys.Details}}
}

func joinActivities(activities []string, width int) []string {
	lines := make([]string, 0, len(activities))
	for _, a := range activities {
		lines = append(lines, ansi.Truncate("• "+strings.TrimSpace(a), width, "…"))
	}
	return lines
}
