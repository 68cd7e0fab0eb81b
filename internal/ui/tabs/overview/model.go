// Package overview provides the overview tab: summary figures, the weekly
// chart and progress toward the weekly goal.
package overview

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/synthesis-tracker/internal/app"
	"github.com/j-veylop/synthesis-tracker/internal/config"
	"github.com/j-veylop/synthesis-tracker/internal/ui/components"
)

const goalAnimationDuration = 1200 * time.Millisecond

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(40*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

type keyMap struct {
	Up   key.Binding
	Down key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	}
}

// Model represents the overview tab state.
type Model struct {
	state    *app.State
	goal     *components.Animation
	spinner  components.LoadingSpinner
	keys     keyMap
	viewport viewport.Model
	goalBar  components.GoalBar
	width    int
	height   int
}

// New creates the overview tab. The goal bar uses the configured weekly
// target and stretch goal.
func New(state *app.State, cfg *config.Config) *Model {
	var target, stretch float64
	if cfg != nil {
		target, stretch = cfg.TargetWeekly, cfg.StretchWeekly
	}
	return &Model{
		state:    state,
		goal:     components.NewAnimation(goalAnimationDuration),
		spinner:  components.NewSpinner("Loading dataset..."),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		goalBar:  components.NewGoalBar(target, stretch),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.DatasetLoadedMsg:
		m.goal.SetTarget(m.latestWeekPercent(), time.Now())
		return m, animationTickCmd()

	case animationTickMsg:
		if m.goal.Step(time.Time(msg)) {
			return m, animationTickCmd()
		}

	case spinner.TickMsg:
		if m.state.IsInitialLoading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// latestWeekPercent returns the latest week's minutes as a percentage of
// the target.
func (m *Model) latestWeekPercent() float64 {
	week := m.state.Dataset().LatestWeek()
	if week == nil {
		return 0
	}
	return m.goalBar.Percent(week.Total())
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.Up, m.keys.Down}}
}
