package models

import "time"

// Weekdays lists the day names in report order, Sunday first.
var Weekdays = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// DateLayout is the layout used for week_start and session dates.
const DateLayout = "2006-01-02"

// Game is one game played during a week.
type Game struct {
	Name            string  `json:"name"`
	Day             string  `json:"day,omitempty"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// WeeklyProgress is the content of one weekly progress report.
type WeeklyProgress struct {
	DailyMinutes         map[string]float64 `json:"daily_minutes"`
	WeekStart            string             `json:"week_start"`
	Games                []Game             `json:"games"`
	LessonsInProgress    []string           `json:"lessons_in_progress"`
	TotalMinutes         float64            `json:"total_minutes"`
	ReportedTotalMinutes float64            `json:"reported_total_minutes,omitempty"`
}

// Total sums the daily minutes.
func (p WeeklyProgress) Total() float64 {
	var total float64
	for _, day := range Weekdays {
		total += p.DailyMinutes[day]
	}
	return total
}

// ActiveDays counts the days with non-zero minutes.
func (p WeeklyProgress) ActiveDays() int {
	n := 0
	for _, day := range Weekdays {
		if p.DailyMinutes[day] > 0 {
			n++
		}
	}
	return n
}

// Minutes returns the daily minutes in Sunday..Saturday order.
func (p WeeklyProgress) Minutes() []float64 {
	out := make([]float64, len(Weekdays))
	for i, day := range Weekdays {
		out[i] = p.DailyMinutes[day]
	}
	return out
}

// Start parses WeekStart. The zero time is returned when it is malformed.
func (p WeeklyProgress) Start() time.Time {
	t, err := time.Parse(DateLayout, p.WeekStart)
	if err != nil {
		return time.Time{}
	}
	return t
}
