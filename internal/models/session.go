package models

// Session is a single tutoring session parsed from a session report email.
type Session struct {
	Day             string   `json:"day"`
	Time            string   `json:"time"`
	Topic           string   `json:"topic"`
	Summary         string   `json:"summary,omitempty"`
	Date            string   `json:"date,omitempty"`
	Activities      []string `json:"activities"`
	DurationMinutes float64  `json:"duration_minutes"`
}

// SessionKey is the identity of a session for de-duplication.
type SessionKey struct {
	Day   string
	Time  string
	Topic string
}

// Key returns the identity of the session.
func (s Session) Key() SessionKey {
	return SessionKey{Day: s.Day, Time: s.Time, Topic: s.Topic}
}
