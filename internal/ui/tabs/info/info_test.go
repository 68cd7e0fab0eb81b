package info

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/synthesis-tracker/internal/app"
	"github.com/j-veylop/synthesis-tracker/internal/config"
	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/version"
)

func TestNew(t *testing.T) {
	m := New(app.NewState(), &config.Config{})
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should not schedule work")
	}
	if updated, cmd := m.Update(nil); updated == nil || cmd != nil {
		t.Error("Update(nil) should be a no-op")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyDown}); cmd != nil {
		t.Error("scrolling should not produce commands")
	}
}

func TestView(t *testing.T) {
	start := time.Date(2025, 9, 15, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		cfg  *config.Config
		runs []models.Run
		want []string
	}{
		{
			name: "no config",
			want: []string{"Configuration not loaded", "No runs recorded yet", "About " + version.Name},
		},
		{
			name: "configured",
			cfg: &config.Config{
				DataDir:      "/tmp/synthesis",
				Bucket:       "synthesis-tracker-data",
				IMAPServer:   "imap.example.com",
				IMAPPort:     993,
				TargetWeekly: 60,
			},
			runs: []models.Run{
				{StartedAt: start, FinishedAt: start.Add(2 * time.Second), Sessions: 12, Weeks: 3, SyncStatus: models.SyncOK},
				{StartedAt: start, FinishedAt: start.Add(time.Second), SyncStatus: models.SyncSkipped, Error: "fetch: timeout", Warnings: 2},
			},
			want: []string{
				"/tmp/synthesis", "synthesis-tracker-data", "imap.example.com:993", "60 min",
				"12 sessions", "ok", "2 warnings", "fetch: timeout",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := app.NewState()
			state.SetRuns(tt.runs)
			m := New(state, tt.cfg)
			m.SetSize(120, 80)

			view := ansi.Strip(m.View())
			for _, want := range tt.want {
				if !strings.Contains(view, want) {
					t.Errorf("view missing %q:\n%s", want, view)
				}
			}
		})
	}
}

func TestUpdate_FailedOnly(t *testing.T) {
	state := app.NewState()
	state.SetRuns([]models.Run{
		{Sessions: 12, SyncStatus: models.SyncOK},
		{SyncStatus: models.SyncSkipped, Error: "login refused"},
		{Sessions: 7, SyncStatus: models.SyncFailed},
	})
	m := New(state, nil)
	m.SetSize(120, 80)

	if got := len(m.visibleRuns()); got != 3 {
		t.Fatalf("visibleRuns() = %d, want 3", got)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	runs := m.visibleRuns()
	if len(runs) != 1 || runs[0].Error != "login refused" {
		t.Fatalf("failed only visibleRuns() = %+v", runs)
	}
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Recent Runs (failed)") || strings.Contains(view, "12 sessions") {
		t.Errorf("view should list failed runs only:\n%s", view)
	}
	if len(state.Runs()) != 3 {
		t.Error("filtering must not change the state")
	}

	state.SetRuns([]models.Run{{SyncStatus: models.SyncOK}})
	if !strings.Contains(ansi.Strip(m.View()), "No failed runs") {
		t.Error("expected the empty failures placeholder")
	}
}

func TestRunLine_Failure(t *testing.T) {
	line := ansi.Strip(runLine(models.Run{SyncStatus: models.SyncFailed, Error: "boom"}))
	if !strings.Contains(line, "failed") || !strings.Contains(line, "boom") {
		t.Errorf("runLine() = %q", line)
	}
}

func TestImapAddr(t *testing.T) {
	if got := imapAddr("", 993); got != "(not configured)" {
		t.Errorf("imapAddr(empty) = %q", got)
	}
	if got := imapAddr("mail.test", 143); got != "mail.test:143" {
		t.Errorf("imapAddr() = %q", got)
	}
}
