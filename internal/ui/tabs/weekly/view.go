package weekly

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/ui/components"
	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
)

// View renders the weekly tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.spinner.Centered(m.width, m.height)
	}

	sections := []string{m.renderTitle()}
	if len(m.weeks) == 0 {
		sections = append(sections, m.renderEmpty())
	} else {
		cardWidth := max(m.width-6, 60)
		list := styles.CardStyle.Render(m.table.View())
		detail := m.renderDetail(m.Selected(), max(cardWidth-lipgloss.Width(list)-1, 36))

		if lipgloss.Width(list)+lipgloss.Width(detail) <= cardWidth {
			sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail))
		} else {
			sections = append(sections, list, detail)
		}
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Weekly Progress")

	var total float64
	for _, w := range m.weeks {
		total += w.Total()
	}
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d weeks · %.1f minutes", len(m.weeks), total))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.CardTitleStyle.Render(components.NoData),
		"",
		styles.HelpStyle.Render("No weekly progress reports have been extracted yet."),
		"",
	)
	return styles.CardStyle.Width(max(m.width-6, 40)).Render(content)
}

func (m *Model) renderDetail(w *models.WeeklyProgress, width int) string {
	if w == nil {
		return ""
	}
	inner := width - 6

	rows := []string{
		styles.CardTitleStyle.Render("Week of " + w.WeekStart),
		"",
		components.RenderWeeklyPattern(w.Minutes()),
		"",
	}

	if m.goal.Target() > 0 {
		pct := m.goal.Percent(w.Total())
		rows = append(rows, styles.HelpStyle.Render("Goal: ")+
			styles.GoalStyle(pct).Render(fmt.Sprintf("%.1f / %.0f min (%.0f%%)", w.Total(), m.goal.Target(), pct)))
		if line := m.goal.StretchLine(w.Total()); line != "" {
			rows = append(rows, line)
		}
		rows = append(rows, "")
	}

	rows = append(rows, styles.SubheadingStyle.Render("Games"))
	if len(w.Games) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  none"))
	}
	for _, g := range w.Games {
		line := "• " + g.Name
		if g.Day != "" {
			line += " (" + g.Day + ")"
		}
		if g.DurationMinutes > 0 {
			line += fmt.Sprintf(" %.1f min", g.DurationMinutes)
		}
		rows = append(rows, ansi.Truncate(line, inner, "…"))
	}

	rows = append(rows, "", styles.SubheadingStyle.Render("Lessons in progress"))
	if len(w.LessonsInProgress) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  none"))
	} else {
		rows = append(rows, ansi.Truncate(strings.Join(w.LessonsInProgress, ", "), inner, "…"))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
