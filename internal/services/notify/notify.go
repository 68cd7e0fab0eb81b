// Package notify sends desktop notifications about tracker runs.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/models"
)

// Notifier sends desktop notifications when enabled.
type Notifier struct {
	send         func(title, message string, icon any) error
	Enabled      bool
	TargetWeekly float64
}

// AppName identifies the sender of desktop notifications.
const AppName = "Synthesis Tracker"

// New creates a Notifier backed by beeep.
func New(enabled bool, targetWeekly float64) *Notifier {
	beeep.AppName = AppName
	return &Notifier{Enabled: enabled, TargetWeekly: targetWeekly, send: beeep.Notify}
}

// RunFailed reports a fatal run error.
func (n *Notifier) RunFailed(err error) {
	if err == nil {
		return
	}
	n.notify("Synthesis tracker failed", err.Error())
}

// WeekCompleted notifies when cur has a newer latest week than prev, with its
// total against the weekly target. It reports whether a notification was
// sent.
func (n *Notifier) WeekCompleted(prev, cur *models.Dataset) bool {
	if cur == nil {
		return false
	}
	week := cur.LatestWeek()
	if week == nil {
		return false
	}
	if prev != nil {
		if old := prev.LatestWeek(); old != nil && old.WeekStart >= week.WeekStart {
			return false
		}
	}

	total := week.Total()
	title := fmt.Sprintf("Week of %s: %.0f minutes", week.WeekStart, total)
	var body string
	switch {
	case n.TargetWeekly <= 0:
		body = fmt.Sprintf("%d active days.", week.ActiveDays())
	case total >= n.TargetWeekly:
		body = fmt.Sprintf("Target of %.0f minutes met across %d active days.", n.TargetWeekly, week.ActiveDays())
	default:
		body = fmt.Sprintf("%.0f minutes short of the %.0f minute target.", n.TargetWeekly-total, n.TargetWeekly)
	}
	return n.notify(title, body)
}

func (n *Notifier) notify(title, body string) bool {
	if n == nil || !n.Enabled {
		return false
	}
	if err := n.send(title, body, ""); err != nil {
		logger.Warn("Desktop notification failed", "title", title, "error", err)
		return false
	}
	return true
}
