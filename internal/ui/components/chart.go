// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/synthesis-tracker/internal/ui/styles"
)

// NoData is rendered in place of a chart without points.
const NoData = "No data"

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// DayAbbrev lists short weekday names, Sunday first.
var DayAbbrev = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// RenderWeeklyChart plots weekly totals as a line, with the target as a
// flat second series when it is positive.
func RenderWeeklyChart(totals []float64, target float64, width, height int, caption string) string {
	if len(totals) == 0 {
		return styles.HelpStyle.Render(NoData)
	}

	width = max(width, 20)
	height = max(height, 3)

	// asciigraph needs two points to draw a line.
	data := totals
	if len(data) == 1 {
		data = []float64{totals[0], totals[0]}
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.LowerBound(0),
	}

	if target <= 0 {
		return asciigraph.Plot(data, append(opts, asciigraph.SeriesColors(asciigraph.Blue))...)
	}

	goal := make([]float64, len(data))
	for i := range goal {
		goal[i] = target
	}
	return asciigraph.PlotMany([][]float64{data, goal},
		append(opts, asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Green))...)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return styles.HelpStyle.Render(NoData)
	}

	maxVal := maxOf(values)

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, len(l))
	}

	barWidth := max(width-maxLabelLen-10, 10)
	barStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		barLen := max(int(v/maxVal*float64(barWidth)), 0)
		bar := barStyle.Render(strings.Repeat("█", barLen))

		lines = append(lines, fmt.Sprintf("%*s │%s %.1f", maxLabelLen, label, bar, v))
	}

	return strings.Join(lines, "\n")
}

// RenderSparkline creates a compact inline sparkline, one rune per value.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := maxOf(values)

	var b strings.Builder
	for _, v := range values {
		b.WriteRune(sparkChars[sparkIndex(v, maxVal)])
	}
	return b.String()
}

// RenderWeeklyPattern labels a sparkline of daily minutes with day names.
func RenderWeeklyPattern(daily []float64) string {
	if len(daily) != len(DayAbbrev) {
		padded := make([]float64, len(DayAbbrev))
		copy(padded, daily)
		daily = padded
	}

	maxVal := maxOf(daily)

	parts := make([]string, len(daily))
	for i, v := range daily {
		style := lipgloss.NewStyle().Foreground(styles.Subtle)
		if v > 0 {
			style = lipgloss.NewStyle().Foreground(styles.Primary)
		}
		parts[i] = fmt.Sprintf("%s %s", DayAbbrev[i], style.Render(string(sparkChars[sparkIndex(v, maxVal)])))
	}

	return strings.Join(parts, " ")
}

func sparkIndex(v, maxVal float64) int {
	idx := int(v / maxVal * float64(len(sparkChars)-1))
	return min(max(idx, 0), len(sparkChars)-1)
}

// maxOf returns the largest value, or 1 when none is positive.
func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		m = max(m, v)
	}
	if m == 0 {
		return 1
	}
	return m
}
