package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

type sent struct {
	title string
	body  string
}

func newTestNotifier(enabled bool, target float64) (*Notifier, *[]sent) {
	var got []sent
	n := New(enabled, target)
	n.send = func(title, message string, _ any) error {
		got = append(got, sent{title: title, body: message})
		return nil
	}
	return n, &got
}

func dataset(weeks ...models.WeeklyProgress) *models.Dataset {
	return &models.Dataset{Progress: weeks}
}

func week(start string, minutes float64) models.WeeklyProgress {
	return models.WeeklyProgress{
		WeekStart:    start,
		DailyMinutes: map[string]float64{"Monday": minutes},
	}
}

func TestWeekCompleted(t *testing.T) {
	tests := []struct {
		name     string
		prev     *models.Dataset
		cur      *models.Dataset
		wantSent bool
		wantBody string
	}{
		{
			name:     "first week met",
			prev:     nil,
			cur:      dataset(week("2025-09-07", 80)),
			wantSent: true,
			wantBody: "Target of 60 minutes met",
		},
		{
			name:     "new week short",
			prev:     dataset(week("2025-09-07", 80)),
			cur:      dataset(week("2025-09-07", 80), week("2025-09-14", 45)),
			wantSent: true,
			wantBody: "15 minutes short",
		},
		{
			name: "same week",
			prev: dataset(week("2025-09-07", 80)),
			cur:  dataset(week("2025-09-07", 80)),
		},
		{
			name: "no weeks",
			prev: nil,
			cur:  dataset(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, got := newTestNotifier(true, 60)
			if sentOK := n.WeekCompleted(tt.prev, tt.cur); sentOK != tt.wantSent {
				t.Fatalf("WeekCompleted() = %v, want %v", sentOK, tt.wantSent)
			}
			if !tt.wantSent {
				if len(*got) != 0 {
					t.Errorf("unexpected notification %+v", *got)
				}
				return
			}
			if len(*got) != 1 || !strings.Contains((*got)[0].body, tt.wantBody) {
				t.Errorf("notification = %+v, want body containing %q", *got, tt.wantBody)
			}
		})
	}
}

func TestNotifier_Disabled(t *testing.T) {
	n, got := newTestNotifier(false, 60)
	n.RunFailed(errors.New("imap login: denied"))
	if n.WeekCompleted(nil, dataset(week("2025-09-07", 80))) {
		t.Error("disabled notifier should not send")
	}
	if len(*got) != 0 {
		t.Errorf("sent %d notifications", len(*got))
	}
}

func TestRunFailed(t *testing.T) {
	n, got := newTestNotifier(true, 60)
	n.RunFailed(nil)
	n.RunFailed(errors.New("imap login: denied"))
	if len(*got) != 1 || (*got)[0].body != "imap login: denied" {
		t.Errorf("notifications = %+v", *got)
	}
}

func TestNotify_SendError(t *testing.T) {
	n := New(true, 60)
	n.send = func(string, string, any) error { return errors.New("no dbus") }
	if n.WeekCompleted(nil, dataset(week("2025-09-07", 80))) {
		t.Error("failed send should report false")
	}
}

func TestNotify_NilNotifier(t *testing.T) {
	var n *Notifier
	n.RunFailed(errors.New("x"))
}
