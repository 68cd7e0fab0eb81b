// Package aggregate merges extracted records into a dataset and derives its
// summary statistics.
package aggregate

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

// Rolling windows, in weeks, for the recent averages.
const (
	recentWeeks = 4
	shortWeeks  = 2
)

// Goals are the weekly minute targets the pace figures are measured against.
// Zero disables the matching pace.
type Goals struct {
	Weekly  float64
	Stretch float64
}

// Build consumes records, drops repeated reports keeping the first one seen,
// orders both views chronologically and computes the summary as of now.
func Build(records iter.Seq[models.Record], goals Goals, now time.Time) *models.Dataset {
	var sessions []models.Session
	var progress []models.WeeklyProgress

	for rec := range records {
		switch rec.Kind {
		case models.ReportSession:
			if rec.Session != nil {
				sessions = append(sessions, *rec.Session)
			}
		case models.ReportWeekly:
			if rec.Progress != nil {
				progress = append(progress, *rec.Progress)
			}
		}
	}

	return New(sessions, progress, goals, now)
}

// New builds a dataset from already extracted sessions and weeks.
func New(sessions []models.Session, progress []models.WeeklyProgress, goals Goals, now time.Time) *models.Dataset {
	sessions = DedupeSessions(sessions)
	progress = DedupeProgress(progress)

	slices.SortStableFunc(sessions, bySessionDate)
	slices.SortStableFunc(progress, func(a, b models.WeeklyProgress) int {
		return cmp.Compare(a.WeekStart, b.WeekStart)
	})

	return &models.Dataset{
		Sessions: sessions,
		Progress: progress,
		Summary:  Summarize(sessions, progress, goals, now),
	}
}

// bySessionDate orders sessions by date, with undated sessions last.
func bySessionDate(a, b models.Session) int {
	switch {
	case a.Date == "" && b.Date == "":
		return 0
	case a.Date == "":
		return 1
	case b.Date == "":
		return -1
	}
	return cmp.Compare(a.Date, b.Date)
}

// DedupeSessions keeps the first session for each (day, time, topic).
func DedupeSessions(sessions []models.Session) []models.Session {
	out := make([]models.Session, 0, len(sessions))
	seen := make(map[models.SessionKey]bool, len(sessions))
	for _, s := range sessions {
		if seen[s.Key()] {
			continue
		}
		seen[s.Key()] = true
		out = append(out, s)
	}
	return out
}

// DedupeProgress keeps the first report for each week.
func DedupeProgress(progress []models.WeeklyProgress) []models.WeeklyProgress {
	out := make([]models.WeeklyProgress, 0, len(progress))
	seen := make(map[string]bool, len(progress))
	for _, p := range progress {
		if seen[p.WeekStart] {
			continue
		}
		seen[p.WeekStart] = true
		out = append(out, p)
	}
	return out
}

// Summarize computes the summary. Averages over empty sets are zero.
// progress is expected in chronological order.
func Summarize(sessions []models.Session, progress []models.WeeklyProgress, goals Goals, now time.Time) models.Summary {
	sum := models.Summary{
		TotalSessions: len(sessions),
		TotalWeeks:    len(progress),
		LastUpdated:   now.UTC(),
	}

	for _, s := range sessions {
		sum.TotalMinutes += s.DurationMinutes
	}
	sum.AverageMinutes = safeDiv(sum.TotalMinutes, float64(sum.TotalSessions))

	var weekly float64
	for _, p := range progress {
		weekly += p.Total()
	}
	sum.WeeklyAverageMinutes = safeDiv(weekly, float64(sum.TotalWeeks))
	sum.DailyAverageMinutes = safeDiv(weekly, float64(sum.TotalWeeks*len(models.Weekdays)))

	if n := len(progress); n > 0 {
		sum.Last4WeeksAverage = weeklyMean(lastWeeks(progress, recentWeeks))
		sum.Last7DaysTotal = progress[n-1].Total()
		sum.DailyAverage4Weeks = activeDayMean(lastWeeks(progress, recentWeeks))
		sum.DailyAverage2Weeks = activeDayMean(lastWeeks(progress, shortWeeks))
	}
	if len(progress) >= shortWeeks {
		sum.Last2WeeksAverage = weeklyMean(lastWeeks(progress, shortWeeks))
	}
	sum.PaceVsTarget = safeDiv(sum.Last4WeeksAverage*100, goals.Weekly)
	sum.PaceVsStretch = safeDiv(sum.Last4WeeksAverage*100, goals.Stretch)

	return sum
}

func lastWeeks(progress []models.WeeklyProgress, n int) []models.WeeklyProgress {
	return progress[max(0, len(progress)-n):]
}

func weeklyMean(weeks []models.WeeklyProgress) float64 {
	var total float64
	for _, p := range weeks {
		total += p.Total()
	}
	return safeDiv(total, float64(len(weeks)))
}

// activeDayMean averages the minutes of days with any activity.
func activeDayMean(weeks []models.WeeklyProgress) float64 {
	var total float64
	var days int
	for _, p := range weeks {
		for _, m := range p.DailyMinutes {
			if m > 0 {
				total += m
				days++
			}
		}
	}
	return safeDiv(total, float64(days))
}

// Latest builds the abbreviated document for the most recent activity.
func Latest(ds *models.Dataset) models.Latest {
	latest := models.Latest{
		LastUpdated: ds.Summary.LastUpdated,
		RecentSummary: models.RecentSummary{
			TotalSessions: ds.Summary.TotalSessions,
			TotalWeeks:    ds.Summary.TotalWeeks,
		},
	}
	if week := ds.LatestWeek(); week != nil {
		latest.RecentSummary.LatestWeek = &models.WeekSummary{
			WeekStart:    week.WeekStart,
			TotalMinutes: week.Total(),
			ActiveDays:   week.ActiveDays(),
		}
	}
	if s := ds.LatestSession(); s != nil {
		session := *s
		latest.RecentSummary.LatestSession = &session
	}
	return latest
}

func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
