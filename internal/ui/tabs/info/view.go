package info

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
	"github.com/j-veylop/synthesis-tracker/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderRunsCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, recent runs and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 100)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if cfg := m.config; cfg != nil {
		rows = append(rows,
			configRow("Data Dir", cfg.DataDir),
			configRow("Database", cfg.DatabasePath),
			configRow("Bucket", orNone(cfg.Bucket)),
			configRow("Region", orNone(cfg.Region)),
			configRow("IMAP Server", imapAddr(cfg.IMAPServer, cfg.IMAPPort)),
			configRow("Mailbox", orNone(cfg.Mailbox)),
			configRow("Weekly Target", fmt.Sprintf("%.0f min", cfg.TargetWeekly)),
			configRow("Stretch Goal", fmt.Sprintf("%.0f min", cfg.StretchWeekly)),
			configRow("Config File", orNone(cfg.ConfigFile)),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	rows = append(rows, configRow("Dataset Source", orNone(m.state.Origin())))

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRunsCard() string {
	title := "Recent Runs"
	if m.failedOnly {
		title += " (failed)"
	}
	rows := []string{styles.CardTitleStyle.Render(title), ""}

	runs := m.visibleRuns()
	switch {
	case len(runs) == 0 && m.failedOnly:
		rows = append(rows, styles.HelpStyle.Render("No failed runs"))
	case len(runs) == 0:
		rows = append(rows, styles.HelpStyle.Render("No runs recorded yet"))
	}
	for _, run := range runs {
		rows = append(rows, ansi.Truncate(runLine(run), m.cardWidth()-6, "…"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func runLine(run models.Run) string {
	started := run.StartedAt.Local().Format("Jan 02 15:04")
	status := styles.SyncStyle(string(run.SyncStatus)).Width(8).Render(string(run.SyncStatus))

	line := fmt.Sprintf("%s  %6s  %3d sessions  %3d weeks  ",
		started, run.Duration().Round(100*time.Millisecond), run.Sessions, run.Weeks)
	line += status
	if run.Warnings > 0 {
		line += styles.WarningTextStyle.Render(strconv.Itoa(run.Warnings) + " warnings ")
	}
	if !run.Succeeded() {
		line += styles.ErrorTextStyle.Render(run.Error)
	}
	return line
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About " + version.Name),
		"",
		configRow("Version", version.GetVersion()),
		configRow("Build Date", version.GetDate()),
		configRow("Git Commit", version.GetCommit()),
		configRow("Go Version", runtime.Version()),
		configRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func configRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func imapAddr(server string, port int) string {
	if server == "" {
		return "(not configured)"
	}
	return fmt.Sprintf("%s:%d", server, port)
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
