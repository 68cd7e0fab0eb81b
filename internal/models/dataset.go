package models

import "time"

// Summary holds statistics derived from the sessions and weekly progress of
// a dataset. Every field is recomputed on each run.
type Summary struct {
	LastUpdated          time.Time `json:"last_updated"`
	TotalSessions        int       `json:"total_sessions"`
	TotalWeeks           int       `json:"total_weeks"`
	TotalMinutes         float64   `json:"total_minutes"`
	AverageMinutes       float64   `json:"average_minutes"`
	WeeklyAverageMinutes float64   `json:"weekly_average_minutes"`
	DailyAverageMinutes  float64   `json:"daily_average_minutes"`
	Last4WeeksAverage    float64   `json:"last_4_weeks_average"`
	Last7DaysTotal       float64   `json:"last_7_days_total"`
	Last2WeeksAverage    float64   `json:"last_2_weeks_average"`
	DailyAverage4Weeks   float64   `json:"daily_average_4_weeks"`
	DailyAverage2Weeks   float64   `json:"daily_average_2_weeks"`
	PaceVsTarget         float64   `json:"pace_vs_target"`
	PaceVsStretch        float64   `json:"pace_vs_stretch"`
}

// Dataset is the persisted aggregate of all extracted reports.
type Dataset struct {
	Sessions []Session        `json:"sessions"`
	Progress []WeeklyProgress `json:"progress"`
	Summary  Summary          `json:"summary"`
}

// IsEmpty reports whether the dataset holds no sessions and no weeks.
func (d *Dataset) IsEmpty() bool {
	return d == nil || (len(d.Sessions) == 0 && len(d.Progress) == 0)
}

// LatestWeek returns the most recent weekly progress entry, or nil.
func (d *Dataset) LatestWeek() *WeeklyProgress {
	if d == nil || len(d.Progress) == 0 {
		return nil
	}
	latest := &d.Progress[0]
	for i := range d.Progress {
		if d.Progress[i].WeekStart > latest.WeekStart {
			latest = &d.Progress[i]
		}
	}
	return latest
}

// LatestSession returns the last dated session in dataset order, or the last
// session when none carries a date. Nil for an empty dataset.
func (d *Dataset) LatestSession() *Session {
	if d == nil || len(d.Sessions) == 0 {
		return nil
	}
	for i := len(d.Sessions) - 1; i >= 0; i-- {
		if d.Sessions[i].Date != "" {
			return &d.Sessions[i]
		}
	}
	return &d.Sessions[len(d.Sessions)-1]
}

// WeekSummary is the abbreviated view of one week used by latest.json.
type WeekSummary struct {
	WeekStart    string  `json:"week_start"`
	ActiveDays   int     `json:"active_days"`
	TotalMinutes float64 `json:"total_minutes"`
}

// RecentSummary is the payload of latest.json.
type RecentSummary struct {
	LatestWeek    *WeekSummary `json:"latest_week,omitempty"`
	LatestSession *Session     `json:"latest_session,omitempty"`
	TotalSessions int          `json:"total_sessions"`
	TotalWeeks    int          `json:"total_weeks"`
}

// Latest is the small document polled by consumers that only need the most
// recent activity.
type Latest struct {
	LastUpdated   time.Time     `json:"last_updated"`
	RecentSummary RecentSummary `json:"recent_summary"`
}
