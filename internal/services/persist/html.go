package persist

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

// recentSessionLimit caps the session table of the snapshot.
const recentSessionLimit = 20

var pageTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"minutes": func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"decimal": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"stamp": func(ds *models.Dataset) string {
		if ds.Summary.LastUpdated.IsZero() {
			return "never"
		}
		return ds.Summary.LastUpdated.Format("2006-01-02 15:04 MST")
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Synthesis Tracker</title>
<style>
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif;max-width:960px;margin:0 auto;padding:24px;background:#0f172a;color:#e2e8f0}
h1{color:#a78bfa}
.cards{display:grid;grid-template-columns:repeat(auto-fit,minmax(160px,1fr));gap:12px}
.card{background:#1e293b;border-radius:8px;padding:16px}
.card .value{font-size:28px;font-weight:600;color:#f8fafc}
.card .label{font-size:12px;color:#94a3b8;text-transform:uppercase}
table{width:100%;border-collapse:collapse;margin-top:16px}
th,td{text-align:left;padding:6px 8px;border-bottom:1px solid #334155}
th{color:#94a3b8;font-weight:500}
.empty{color:#64748b}
</style>
</head>
<body>
<h1>Synthesis Tracker</h1>
<p>Last updated: {{stamp .Dataset}}</p>
<div class="cards">
<div class="card"><div class="value">{{.Dataset.Summary.TotalSessions}}</div><div class="label">Sessions</div></div>
<div class="card"><div class="value">{{minutes .Dataset.Summary.TotalMinutes}}</div><div class="label">Session minutes</div></div>
<div class="card"><div class="value">{{minutes .Dataset.Summary.AverageMinutes}}</div><div class="label">Avg per session</div></div>
<div class="card"><div class="value">{{minutes .Dataset.Summary.WeeklyAverageMinutes}}</div><div class="label">Avg per week</div></div>
<div class="card"><div class="value">{{minutes .Dataset.Summary.Last4WeeksAverage}}</div><div class="label">Last 4 weeks avg</div></div>
<div class="card"><div class="value">{{minutes .Dataset.Summary.DailyAverage4Weeks}}</div><div class="label">Active-day avg (4 weeks)</div></div>
</div>
<h2>Weekly progress</h2>
{{if .Weeks}}<table>
<tr><th>Week of</th>{{range .Days}}<th>{{.}}</th>{{end}}<th>Total</th></tr>
{{range .Weeks}}<tr><td>{{.WeekStart}}</td>{{range .Minutes}}<td>{{minutes .}}</td>{{end}}<td>{{minutes .Total}}</td></tr>
{{end}}</table>{{else}}<p class="empty">No weekly reports yet.</p>{{end}}
<h2>Recent sessions</h2>
{{if .Sessions}}<table>
<tr><th>Day</th><th>Time</th><th>Topic</th><th>Minutes</th></tr>
{{range .Sessions}}<tr><td>{{.Day}}</td><td>{{.Time}}</td><td>{{.Topic}}</td><td>{{decimal .DurationMinutes}}</td></tr>
{{end}}</table>{{else}}<p class="empty">No sessions yet.</p>{{end}}
</body>
</html>
`))

type pageData struct {
	Dataset  *models.Dataset
	Days     []string
	Weeks    []models.WeeklyProgress
	Sessions []models.Session
}

// RenderHTML renders the static snapshot page: summary cards, the weekly
// table newest first and the most recent sessions.
func RenderHTML(ds *models.Dataset) ([]byte, error) {
	if ds == nil {
		ds = &models.Dataset{}
	}

	weeks := slices.Clone(ds.Progress)
	slices.Reverse(weeks)

	sessions := slices.Clone(ds.Sessions)
	slices.Reverse(sessions)
	if len(sessions) > recentSessionLimit {
		sessions = sessions[:recentSessionLimit]
	}

	days := make([]string, len(models.Weekdays))
	for i, d := range models.Weekdays {
		days[i] = d[:3]
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{Dataset: ds, Days: days, Weeks: weeks, Sessions: sessions}); err != nil {
		return nil, fmt.Errorf("failed to render snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
