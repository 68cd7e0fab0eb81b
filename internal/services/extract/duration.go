package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	minSecRe  = regexp.MustCompile(`(?i)(\d+)\s*m(?:in(?:ute)?s?)?\s*(\d+)\s*s(?:ec(?:ond)?s?)?\b`)
	minutesRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:m|mins?|minutes?)\b`)
	secondsRe = regexp.MustCompile(`(?i)(\d+)\s*(?:s|secs?|seconds?)\b`)
	onDayRe   = regexp.MustCompile(`(?i)\bon\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
)

// ParseDuration reads a duration written as "12 minutes", "12.5 min",
// "3m 20s" or "45s" and returns it in minutes. Minute-and-second forms are
// converted from whole seconds and floored to one decimal place.
func ParseDuration(s string) (float64, bool) {
	if m := minSecRe.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		secs, _ := strconv.Atoi(m[2])
		return floorTenths(mins*60 + secs), true
	}
	if m := minutesRe.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	if m := secondsRe.FindStringSubmatch(s); m != nil {
		secs, _ := strconv.Atoi(m[1])
		return floorTenths(secs), true
	}
	return 0, false
}

// floorTenths converts seconds to minutes, floored to one decimal place.
// Integer arithmetic keeps 200s at exactly 3.3 rather than 3.2999.
func floorTenths(seconds int) float64 {
	return float64(seconds/6) / 10
}

// parseMinutesValue reads a bare cell value such as "12", "12.5", "12 min"
// or "". Empty means no activity.
func parseMinutesValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "–" {
		return 0, true
	}
	if v, ok := parseCount(s); ok {
		return v, true
	}
	return ParseDuration(s)
}

// parseCount reads a finite, non-negative number. ParseFloat alone would
// also accept "Inf" and "NaN".
func parseCount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// dayOf extracts "Monday" from text like "12 minutes on monday".
func dayOf(s string) string {
	if m := onDayRe.FindStringSubmatch(s); m != nil {
		return capitalize(m[1])
	}
	return ""
}

// weekdayFromLabel maps "Sunday", "sun" or "SUN." to the canonical name.
func weekdayFromLabel(label string) (string, bool) {
	label = strings.ToLower(strings.Trim(strings.TrimSpace(label), ".:"))
	if len(label) < 3 {
		return "", false
	}
	for _, day := range weekdayNames {
		lower := strings.ToLower(day)
		if label == lower || label == lower[:3] {
			return day, true
		}
	}
	return "", false
}

func capitalize(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
