package sessions

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/synthesis-tracker/internal/app"
	"github.com/j-veylop/synthesis-tracker/internal/models"
)

func sampleSessions() []models.Session {
	return []models.Session{
		{Day: "Monday", Time: "4:00 PM", Topic: "Fractions", Date: "2025-09-08", DurationMinutes: 22.5,
			Activities: []string{"Warm-up puzzle", "Fraction strips"}, Summary: "Compared unit fractions."},
		{Day: "Wednesday", Time: "4:10 PM", Topic: "Place value", Date: "2025-09-10", DurationMinutes: 18},
		{Day: "Friday", Time: "5:00 PM", Topic: "Undated", DurationMinutes: 7},
	}
}

func TestNewestFirst(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Session
		want []string
	}{
		{name: "empty", want: []string{}},
		{name: "by date", in: sampleSessions(), want: []string{"Place value", "Fractions", "Undated"}},
		{
			name: "same date keeps later entries first",
			in: []models.Session{
				{Topic: "a", Date: "2025-09-08"},
				{Topic: "b", Date: "2025-09-08"},
			},
			want: []string{"b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newestFirst(tt.in)
			topics := make([]string, len(got))
			for i, s := range got {
				topics[i] = s.Topic
			}
			if strings.Join(topics, ",") != strings.Join(tt.want, ",") {
				t.Errorf("newestFirst() = %v, want %v", topics, tt.want)
			}
		})
	}
}

func loadedModel(t *testing.T) *Model {
	t.Helper()
	state := app.NewState()
	state.SetLoading("initial", false)
	m := New(state)
	m.SetSize(140, 50)

	ds := &models.Dataset{Sessions: sampleSessions()}
	state.SetDataset(ds, time.Now())
	m.Update(app.DatasetLoadedMsg{Dataset: ds, LoadedAt: time.Now()})
	return m
}

func TestUpdate_DatasetLoaded(t *testing.T) {
	m := loadedModel(t)

	if got := len(m.table.Rows()); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
	sel := m.Selected()
	if sel == nil || sel.Topic != "Place value" {
		t.Errorf("Selected() = %+v, want newest session", sel)
	}
	if m.table.Rows()[2][0] != "-" {
		t.Errorf("undated session date cell = %q, want -", m.table.Rows()[2][0])
	}
}

func TestUpdate_Keys(t *testing.T) {
	m := loadedModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if sel := m.Selected(); sel == nil || sel.Topic != "Fractions" {
		t.Errorf("after down Selected() = %+v", sel)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.showDetails {
		t.Error("enter should hide the detail pane")
	}
}

func TestView(t *testing.T) {
	m := loadedModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyDown})

	view := ansi.Strip(m.View())
	for _, want := range []string{"3 sessions", "47.5 minutes", "Place value", "Activities", "Fraction strips"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	empty := New(app.NewState())
	empty.state.SetLoading("initial", false)
	empty.SetSize(100, 30)
	if !strings.Contains(ansi.Strip(empty.View()), "No data") {
		t.Error("empty view should show the placeholder")
	}
}

func TestTruncatesLongTopics(t *testing.T) {
	state := app.NewState()
	m := New(state)
	m.SetSize(80, 30)

	long := strings.Repeat("x", 200)
	ds := &models.Dataset{Sessions: []models.Session{{Topic: long, Date: "2025-09-01"}}}
	state.SetDataset(ds, time.Now())
	m.Update(app.DatasetLoadedMsg{Dataset: ds})

	cell := m.table.Rows()[0][4]
	if ansi.StringWidth(cell) > m.topicWidth {
		t.Errorf("topic cell width %d exceeds column width %d", ansi.StringWidth(cell), m.topicWidth)
	}
}
