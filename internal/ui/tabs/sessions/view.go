package sessions

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/synthesis-tracker/internal/ui/components"
	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
)

// detailHeight is the number of lines reserved for the detail card.
const detailHeight = 12

// View renders the sessions tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.spinner.Centered(m.width, m.height)
	}

	sections := []string{m.renderTitle()}
	if len(m.sessions) == 0 {
		sections = append(sections, m.renderEmptyState())
	} else {
		sections = append(sections, m.renderTable())
		if m.showDetails {
			sections = append(sections, m.renderDetails())
		}
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Sessions")

	var total float64
	for _, s := range m.sessions {
		total += s.DurationMinutes
	}
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d sessions · %.1f minutes", len(m.sessions), total))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderTable() string {
	return styles.CardStyle.Width(max(m.width-6, 60)).Render(m.table.View())
}

func (m *Model) renderEmptyState() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.CardTitleStyle.Render(components.NoData),
		"",
		styles.HelpStyle.Render("No session reports have been extracted yet."),
		"",
	)
	return styles.CardStyle.Width(max(m.width-6, 40)).Render(content)
}

func (m *Model) renderDetails() string {
	s := m.Selected()
	if s == nil {
		return ""
	}

	cardWidth := max(m.width-6, 60)
	inner := cardWidth - 6

	rows := []string{
		styles.CardTitleStyle.Render(ansi.Truncate(s.Topic, inner, "…")),
		styles.HelpStyle.Render(fmt.Sprintf("%s %s · %.1f minutes", s.Day, s.Time, s.DurationMinutes)),
	}
	if s.Summary != "" {
		rows = append(rows, "", lipgloss.NewStyle().Width(inner).MaxHeight(3).Render(s.Summary))
	}
	if len(s.Activities) > 0 {
		rows = append(rows, "", styles.SubheadingStyle.Render("Activities"))
		rows = append(rows, joinActivities(s.Activities, inner)...)
	}

	return styles.CardStyle.Width(cardWidth).MaxHeight(detailHeight).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
