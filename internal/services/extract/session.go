package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

var (
	// ErrMissingSessionHeader means no "<Weekday>, <time> - <n> minutes" line
	// was found, so neither weekday nor duration is known.
	ErrMissingSessionHeader = errors.New("session header with weekday and duration not found")

	sessionHeaderRe = regexp.MustCompile(
		`(?i)\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday),\s*` +
			`(\d{1,2}:\d{2}\s*[ap]\.?m\.?)\s*[-–—]\s*(\d+(?:\.\d+)?)\s*minutes?\b`)
	timeSpaceRe = regexp.MustCompile(`[\s.]`)
)

// ExtractSession parses a session report. The topic comes from the subject
// suffix after the first colon.
func ExtractSession(msg models.RawMessage) (models.Session, error) {
	var doc *document
	if msg.HTML != "" {
		d, err := parseDocument(msg.HTML)
		if err == nil {
			doc = d
		}
	}

	text := msg.Text
	if text == "" && doc != nil {
		text = doc.text()
	}

	header := findSessionHeader(doc, text)
	if header == nil {
		return models.Session{}, ErrMissingSessionHeader
	}
	duration, err := strconv.ParseFloat(header[3], 64)
	if err != nil {
		return models.Session{}, ErrMissingSessionHeader
	}

	activities := extractActivities(doc, text)
	s := models.Session{
		Day:             capitalize(header[1]),
		Time:            timeSpaceRe.ReplaceAllString(strings.ToLower(header[2]), ""),
		DurationMinutes: duration,
		Topic:           topicFromSubject(msg.Subject),
		Activities:      activities,
		Summary:         extractSummary(text, activities),
	}
	if !msg.Date.IsZero() {
		s.Date = msg.Date.UTC().Format(time.RFC3339)
	}
	return s, nil
}

// findSessionHeader looks in HTML paragraphs first, then the plain text.
func findSessionHeader(doc *document, text string) []string {
	var match []string
	if doc != nil {
		doc.doc.Find("p, td, h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			match = sessionHeaderRe.FindStringSubmatch(cleanText(s.Text()))
			return match == nil
		})
	}
	if match == nil {
		match = sessionHeaderRe.FindStringSubmatch(text)
	}
	return match
}

func topicFromSubject(subject string) string {
	_, topic, ok := strings.Cut(subject, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(topic)
}

// extractActivities reads list items from the HTML body, or bulleted lines
// from the plain text when there is no list markup.
func extractActivities(doc *document, text string) []string {
	activities := []string{}
	if doc != nil {
		doc.doc.Find("li").Each(func(_ int, s *goquery.Selection) {
			if item := cleanText(s.Text()); item != "" {
				activities = append(activities, item)
			}
		})
		if len(activities) > 0 {
			return activities
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			if item := cleanText(m[1]); item != "" {
				activities = append(activities, item)
			}
		}
	}
	return activities
}

// extractSummary joins the prose following the header line, stopping at the
// footer links. Activity lines are left out.
func extractSummary(text string, activities []string) string {
	skip := make(map[string]bool, len(activities))
	for _, a := range activities {
		skip[a] = true
	}

	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if sessionHeaderRe.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	var parts []string
	for _, line := range lines[start+1:] {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Login") || strings.HasPrefix(line, "View in") {
			break
		}
		if line == "" || strings.HasPrefix(line, "—") || bulletRe.MatchString(line) || skip[cleanText(line)] {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
