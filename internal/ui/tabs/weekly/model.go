// Package weekly provides the weekly progress tab.
package weekly

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/synthesis-tracker/internal/app"
	"github.com/j-veylop/synthesis-tracker/internal/config"
	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/ui/components"
	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
)

// keyMap defines the key bindings specific to the weekly tab.
type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Home key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "newer week"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "older week"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "latest week"),
		),
	}
}

// Model represents the weekly tab state.
type Model struct {
	state   *app.State
	table   table.Model
	spinner components.LoadingSpinner
	goal    components.GoalBar
	keys    keyMap
	weeks   []models.WeeklyProgress
	width   int
	height  int
}

// New creates the weekly tab. Goal percentages are relative to the
// configured weekly target.
func New(state *app.State, cfg *config.Config) *Model {
	var target, stretch float64
	if cfg != nil {
		target, stretch = cfg.TargetWeekly, cfg.StretchWeekly
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Week of", Width: 10},
			{Title: "Minutes", Width: 8},
			{Title: "Days", Width: 4},
			{Title: "Pattern", Width: 7},
			{Title: "Games", Width: 5},
			{Title: "Goal", Width: 6},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
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
		state:   state,
		table:   t,
		spinner: components.NewSpinner("Loading weekly progress..."),
		goal:    components.NewGoalBar(target, stretch),
		keys:    defaultKeyMap(),
	}
}

// Init initializes the weekly tab.
func (m *Model) Init() tea.Cmd {
	m.refresh()
	return nil
}

// Update handles messages for the weekly tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.DatasetLoadedMsg:
		m.refresh()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Home) {
			m.table.GotoTop()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh rebuilds the rows, latest week first.
func (m *Model) refresh() {
	m.weeks = slices.Clone(m.state.Dataset().Progress)
	slices.SortStableFunc(m.weeks, func(a, b models.WeeklyProgress) int {
		return cmp.Compare(b.WeekStart, a.WeekStart)
	})

	rows := make([]table.Row, 0, len(m.weeks))
	for _, w := range m.weeks {
		goal := "-"
		if m.goal.Target() > 0 {
			goal = fmt.Sprintf("%.0f%%", m.goal.Percent(w.Total()))
		}
		rows = append(rows, table.Row{
			w.WeekStart,
			fmt.Sprintf("%.1f", w.Total()),
			fmt.Sprintf("%d", w.ActiveDays()),
			components.RenderSparkline(w.Minutes()),
			fmt.Sprintf("%d", len(w.Games)),
			goal,
		})
	}

	m.table.SetRows(rows)
	if c := m.table.Cursor(); len(rows) > 0 && (c < 0 || c >= len(rows)) {
		m.table.SetCursor(min(max(c, 0), len(rows)-1))
	}
}

// Selected returns the week under the cursor, or nil.
func (m *Model) Selected() *models.WeeklyProgress {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.weeks) {
		return nil
	}
	return &m.weeks[i]
}

// SetSize sets the available size for the weekly tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(min(max(height-8, 3), 12))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Home}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.Up, m.keys.Down, m.keys.Home}}
}
