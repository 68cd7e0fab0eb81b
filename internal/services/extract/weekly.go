package extract

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

const (
	barValueStyle = "color:rgb(156,163,175)"
	nameStyle     = "font-size:24px"
)

var (
	// ErrMissingDailyMinutes means fewer than seven daily values were found.
	ErrMissingDailyMinutes = errors.New("daily active minutes not found")
	// ErrMissingDate means the message has no usable Date header.
	ErrMissingDate = errors.New("message date missing")

	dayLineRe    = regexp.MustCompile(`(?i)^(sun|mon|tue|wed|thu|fri|sat)[a-z]*\.?\s*[:\-–]?\s*(.*)$`)
	gameLineRe   = regexp.MustCompile(`^(.+?)\s*(?:\s[-–]\s|:)\s*(.+)$`)
	bulletRe     = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s+(.+)$`)
	totalAfterRe = regexp.MustCompile(`(?i)total(?:\s+active)?(?:\s+minutes)?\s*[:\-–]\s*(\d+(?:\.\d+)?)`)
	totalLeadRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s+total\s+(?:active\s+)?minutes`)
)

// ExtractWeekly parses a weekly progress report. The returned notes are
// non-fatal problems (a game without a duration, a total that does not add
// up); an error means the report could not produce a record.
func ExtractWeekly(msg models.RawMessage) (models.WeeklyProgress, []string, error) {
	if msg.Date.IsZero() {
		return models.WeeklyProgress{}, nil, ErrMissingDate
	}

	doc, err := parseDocument(msg.Body())
	if err != nil {
		return models.WeeklyProgress{}, nil, fmt.Errorf("parse html: %w", err)
	}
	text := doc.text()
	if msg.HTML == "" {
		text = msg.Text
	}

	daily, ok := dailyFromTable(doc)
	if !ok {
		daily, ok = dailyFromBars(doc)
	}
	if !ok {
		daily, ok = dailyFromText(text)
	}
	if !ok {
		return models.WeeklyProgress{}, nil, ErrMissingDailyMinutes
	}

	var notes []string
	games, gameNotes := extractGames(doc, text)
	notes = append(notes, gameNotes...)

	p := models.WeeklyProgress{
		WeekStart:         WeekStart(msg.Date).Format(models.DateLayout),
		DailyMinutes:      daily,
		Games:             games,
		LessonsInProgress: extractLessons(doc, text),
	}
	p.TotalMinutes = p.Total()

	if reported, ok := reportedTotal(text); ok {
		p.ReportedTotalMinutes = reported
		if math.Abs(reported-p.TotalMinutes) > 0.05 {
			notes = append(notes, fmt.Sprintf("reported total %.1f does not match daily sum %.1f",
				reported, p.TotalMinutes))
		}
	}

	return p, notes, nil
}

// WeekStart returns the Sunday that starts the week a report received at t
// describes: reports arrive after the week they cover, so this is the
// Sunday on or before t minus seven days.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// dailyFromTable reads rows of the form <tr><td>Monday</td><td>12</td></tr>.
func dailyFromTable(doc *document) (map[string]float64, bool) {
	scope, ok := doc.section(titleDailyMinutes)
	if !ok {
		return nil, false
	}

	daily := make(map[string]float64, len(weekdayNames))
	for _, s := range scope {
		if goquery.NodeName(s) != "tr" {
			continue
		}
		cells := s.ChildrenFiltered("td, th")
		if cells.Length() < 2 {
			continue
		}
		day, ok := weekdayFromLabel(cells.Eq(0).Text())
		if !ok {
			continue
		}
		if _, seen := daily[day]; seen {
			continue
		}
		if v, ok := parseMinutesValue(cells.Eq(1).Text()); ok {
			daily[day] = v
		}
	}
	return daily, len(daily) == len(weekdayNames)
}

// dailyFromBars reads the bar chart layout: each bar is topped by a grey
// label holding its minutes, empty when the day had no activity. Labels map
// positionally to Sunday through Saturday.
func dailyFromBars(doc *document) (map[string]float64, bool) {
	scope, ok := doc.section(titleDailyMinutes)
	if !ok {
		scope = doc.nodes
	}

	var values []float64
	for _, s := range scope {
		if goquery.NodeName(s) != "div" || !styleHas(s, barValueStyle) {
			continue
		}
		text := cleanText(s.Text())
		if text == "" {
			values = append(values, 0)
			continue
		}
		if v, ok := parseCount(text); ok {
			values = append(values, v)
		}
	}
	if len(values) < len(weekdayNames) {
		return nil, false
	}

	daily := make(map[string]float64, len(weekdayNames))
	for i, day := range weekdayNames {
		daily[day] = values[i]
	}
	return daily, true
}

// dailyFromText reads "Monday: 12" lines from a plain-text report.
func dailyFromText(text string) (map[string]float64, bool) {
	section, ok := textSection(text, titleDailyMinutes)
	if !ok {
		return nil, false
	}

	daily := make(map[string]float64, len(weekdayNames))
	for _, line := range strings.Split(section, "\n") {
		m := dayLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		day, ok := weekdayFromLabel(m[1])
		if !ok {
			continue
		}
		if _, seen := daily[day]; seen {
			continue
		}
		if v, ok := parseMinutesValue(m[2]); ok {
			daily[day] = v
		}
	}
	return daily, len(daily) == len(weekdayNames)
}

// extractGames pairs each game name with the duration text that follows it.
// "Name - 12 minutes" on a single line is accepted as well.
func extractGames(doc *document, text string) ([]models.Game, []string) {
	games := []models.Game{}
	var notes []string

	scope, _ := doc.section(titleGames)
	pending := ""
	flush := func() {
		if pending != "" {
			notes = append(notes, fmt.Sprintf("game %q has no duration", pending))
			pending = ""
		}
	}

	for _, s := range scope {
		if styleHas(s, nameStyle) {
			flush()
			pending = cleanText(s.Text())
			continue
		}
		if !isLeaf(s) {
			continue
		}
		line := cleanText(s.Text())
		if line == "" {
			continue
		}
		if pending != "" {
			if mins, ok := ParseDuration(line); ok {
				games = append(games, models.Game{Name: pending, DurationMinutes: mins, Day: dayOf(line)})
				pending = ""
			}
			continue
		}
		if g, ok := parseGameLine(line); ok {
			games = append(games, g)
		}
	}
	flush()

	if len(scope) == 0 {
		if section, ok := textSection(text, titleGames); ok {
			for _, line := range strings.Split(section, "\n") {
				if m := bulletRe.FindStringSubmatch(line); m != nil {
					line = m[1]
				}
				if g, ok := parseGameLine(cleanText(line)); ok {
					games = append(games, g)
				}
			}
		}
	}

	return games, notes
}

func parseGameLine(line string) (models.Game, bool) {
	m := gameLineRe.FindStringSubmatch(line)
	if m == nil {
		return models.Game{}, false
	}
	mins, ok := ParseDuration(m[2])
	if !ok {
		return models.Game{}, false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return models.Game{}, false
	}
	return models.Game{Name: name, DurationMinutes: mins, Day: dayOf(m[2])}, true
}

// extractLessons collects lesson names once each, in first-seen order.
func extractLessons(doc *document, text string) []string {
	lessons := []string{}
	seen := make(map[string]bool)
	add := func(name string) {
		name = cleanText(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		lessons = append(lessons, name)
	}

	scope, _ := doc.section(titleLessons)
	for _, s := range scope {
		if styleHas(s, nameStyle) || goquery.NodeName(s) == "li" {
			add(s.Text())
		}
	}

	if len(scope) == 0 {
		if section, ok := textSection(text, titleLessons); ok {
			for _, line := range strings.Split(section, "\n") {
				if m := bulletRe.FindStringSubmatch(line); m != nil {
					add(m[1])
				}
			}
		}
	}
	return lessons
}

func reportedTotal(text string) (float64, bool) {
	for _, re := range []*regexp.Regexp{totalAfterRe, totalLeadRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
