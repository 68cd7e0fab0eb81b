package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
)

// LoadingSpinner is a spinner with a label, shown while the dataset loads.
type LoadingSpinner struct {
	spinner spinner.Model
	label   string
}

// NewSpinner creates a new loading spinner with the given label.
func NewSpinner(label string) LoadingSpinner {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return LoadingSpinner{spinner: s, label: label}
}

// Tick starts the spinner.
func (l LoadingSpinner) Tick() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner on its tick messages.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// View renders the spinner followed by its label.
func (l LoadingSpinner) View() string {
	return l.spinner.View() + " " + styles.HelpStyle.Render(l.label)
}

// Centered renders the spinner in the middle of a width x height area.
func (l LoadingSpinner) Centered(width, height int) string {
	return styles.CenterBoth(l.View(), width, height)
}
