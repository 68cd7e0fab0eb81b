package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
)

// GoalBar renders weekly minutes against the target and stretch goals.
type GoalBar struct {
	progress progress.Model
	target   float64
	stretch  float64
}

// NewGoalBar creates a goal bar. A non-positive target disables the bar.
func NewGoalBar(target, stretch float64) GoalBar {
	p := progress.New(
		progress.WithScaledGradient("#ff6b6b", "#51cf66"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return GoalBar{progress: p, target: target, stretch: stretch}
}

// Target returns the weekly target in minutes.
func (g GoalBar) Target() float64 {
	return g.target
}

// Percent returns minutes as a percentage of the target.
func (g GoalBar) Percent(minutes float64) float64 {
	if g.target <= 0 {
		return 0
	}
	return minutes / g.target * 100
}

// View renders the bar filled to percent of the target, with the minutes it
// stands for.
func (g GoalBar) View(percent, minutes float64, label string, width int) string {
	if g.target <= 0 {
		return styles.HelpStyle.Render("No weekly target configured")
	}

	labelStr := styles.LabelStyle.Width(14).Render(label)

	g.progress.Width = max(width-40, 10)
	bar := g.progress.ViewAs(min(max(percent, 0), 100) / 100)

	figure := fmt.Sprintf("%5.1f / %.0f min", minutes, g.target)
	percentStr := styles.GoalStyle(percent).Width(6).Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	return lipgloss.JoinHorizontal(lipgloss.Center,
		labelStr, bar, " ", styles.ValueStyle.Render(figure), " ", percentStr)
}

// StretchLine describes progress toward the stretch goal, or is empty when
// no stretch goal above the target is configured.
func (g GoalBar) StretchLine(minutes float64) string {
	if g.stretch <= g.target || g.stretch <= 0 {
		return ""
	}
	if minutes >= g.stretch {
		return styles.SuccessTextStyle.Render(fmt.Sprintf("Stretch goal of %.0f minutes reached", g.stretch))
	}
	return styles.HelpStyle.Render(fmt.Sprintf("%.1f minutes to the %.0f minute stretch goal", g.stretch-minutes, g.stretch))
}

// Animation eases a value toward its target.
type Animation struct {
	start    time.Time
	from     float64
	current  float64
	target   float64
	Duration time.Duration
}

// NewAnimation creates an animation resting at zero.
func NewAnimation(d time.Duration) *Animation {
	return &Animation{Duration: d}
}

// SetTarget starts moving toward target from the current value.
func (a *Animation) SetTarget(target float64, now time.Time) {
	if target == a.target {
		return
	}
	a.from = a.current
	a.target = target
	a.start = now
}

// Step advances the animation and reports whether it is still moving.
func (a *Animation) Step(now time.Time) bool {
	if a.current == a.target {
		return false
	}

	elapsed := now.Sub(a.start)
	if a.Duration <= 0 || elapsed >= a.Duration {
		a.current = a.target
		return false
	}

	p := elapsed.Seconds() / a.Duration.Seconds()
	ease := 1 - (1-p)*(1-p)
	a.current = a.from + (a.target-a.from)*ease
	return true
}

// Value returns the current value.
func (a *Animation) Value() float64 {
	return a.current
}
