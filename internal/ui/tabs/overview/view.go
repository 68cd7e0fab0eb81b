package overview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/ui/components"
	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
)

// View renders the overview tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.spinner.Centered(m.width, m.height)
	}

	ds := m.state.Dataset()

	sections := []string{m.renderTitle(ds)}
	if ds.IsEmpty() {
		sections = append(sections, m.renderEmpty())
	} else {
		sections = append(sections,
			m.renderStats(ds),
			m.renderGoal(ds),
			m.renderWeeklyChart(ds),
			m.renderLatestWeek(ds),
		)
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle(ds *models.Dataset) string {
	title := styles.TitleStyle.Render("Synthesis Tracker")

	updated := "never"
	if !ds.Summary.LastUpdated.IsZero() {
		updated = ds.Summary.LastUpdated.Local().Format("Jan 2, 2006 15:04")
	}
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("Last extracted %s · %s", updated, m.state.Origin()))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderEmpty() string {
	cardWidth := max(m.width-6, 40)
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render(components.NoData),
		"",
		styles.HelpStyle.Render("No sessions or weekly reports have been extracted yet."),
		styles.InfoTextStyle.Render("  ╰─▶ Run `synthesis-tracker` to fetch reports"),
	)
	return styles.CardStyle.Width(cardWidth).Render(content)
}

func statCard(label, value string) string {
	return styles.StatCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render(label),
		styles.StatValueStyle.Render(value),
	))
}

func (m *Model) renderStats(ds *models.Dataset) string {
	s := ds.Summary
	cards := []string{
		statCard("Sessions", fmt.Sprintf("%d", s.TotalSessions)),
		statCard("Session minutes", fmt.Sprintf("%.1f", s.TotalMinutes)),
		statCard("Avg session", formatMinutes(s.AverageMinutes)),
		statCard("Weeks", fmt.Sprintf("%d", s.TotalWeeks)),
		statCard("Weekly avg", formatMinutes(s.WeeklyAverageMinutes)),
		statCard("Last 4 weeks", formatMinutes(s.Last4WeeksAverage)),
	}

	// Wrap onto a second row when the cards do not fit.
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(row) > m.width-6 && m.width > 0 {
		half := len(cards) / 2
		row = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, cards[:half]...),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[half:]...),
		)
	}
	return row + "\n"
}

func (m *Model) renderGoal(ds *models.Dataset) string {
	cardWidth := max(m.width-6, 40)
	rows := []string{styles.CardTitleStyle.Render("Weekly Goal"), ""}

	week := ds.LatestWeek()
	if week == nil {
		rows = append(rows, styles.HelpStyle.Render("No weekly progress reports yet"))
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	total := week.Total()
	rows = append(rows,
		m.goalBar.View(m.goal.Value(), total, "Week of "+shortDate(week.WeekStart), cardWidth-6),
	)
	if line := m.goalBar.StretchLine(total); line != "" {
		rows = append(rows, "", line)
	}
	if ds.Summary.PaceVsTarget > 0 {
		pace := styles.GoalStyle(ds.Summary.PaceVsTarget).Render(fmt.Sprintf("%.0f%%", ds.Summary.PaceVsTarget))
		rows = append(rows, styles.HelpStyle.Render("4-week pace vs target: ")+pace)
	}
	if ds.Summary.PaceVsStretch > 0 {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("4-week pace vs stretch: %.0f%%", ds.Summary.PaceVsStretch)))
	}
	if ds.Summary.DailyAverage2Weeks > 0 {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("Active-day average: %s (2 weeks) · %s (4 weeks)",
			formatMinutes(ds.Summary.DailyAverage2Weeks), formatMinutes(ds.Summary.DailyAverage4Weeks))))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderWeeklyChart(ds *models.Dataset) string {
	cardWidth := max(m.width-6, 40)
	rows := []string{styles.CardTitleStyle.Render("Minutes per Week"), ""}

	totals := make([]float64, len(ds.Progress))
	for i, p := range ds.Progress {
		totals[i] = p.Total()
	}

	caption := fmt.Sprintf("%d weeks", len(totals))
	if target := m.goalBar.Target(); target > 0 {
		caption += fmt.Sprintf(" · target %.0f min (green)", target)
	}

	chart := components.RenderWeeklyChart(totals, m.goalBar.Target(), max(cardWidth-16, 30), 8, caption)
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderLatestWeek(ds *models.Dataset) string {
	cardWidth := max(m.width-6, 40)
	rows := []string{styles.CardTitleStyle.Render("Latest Week by Day"), ""}

	week := ds.LatestWeek()
	if week == nil {
		rows = append(rows, styles.HelpStyle.Render(components.NoData))
	} else {
		rows = append(rows,
			components.RenderBarChart(week.Minutes(), components.DayAbbrev, cardWidth-8),
			"",
			styles.HelpStyle.Render(fmt.Sprintf("%d active days", week.ActiveDays())),
		)
	}

	if s := ds.LatestSession(); s != nil {
		rows = append(rows, "", styles.HelpStyle.Render("Latest session: ")+
			fmt.Sprintf("%s %s · %s · %s", s.Day, s.Time, formatMinutes(s.DurationMinutes), s.Topic))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatMinutes(v float64) string {
	return fmt.Sprintf("%.1f min", v)
}

// shortDate renders a YYYY-MM-DD date as "Sep 7".
func shortDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2")
}
