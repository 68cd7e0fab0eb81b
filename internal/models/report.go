// Package models defines data structures and domain types.
package models

import "time"

// ReportKind identifies which email template a message follows.
type ReportKind int

const (
	// ReportUnknown is any message that matches neither template.
	ReportUnknown ReportKind = iota
	// ReportWeekly is the weekly progress summary email.
	ReportWeekly
	// ReportSession is the per-session report email.
	ReportSession
)

// String returns the display name for a report kind.
func (k ReportKind) String() string {
	switch k {
	case ReportWeekly:
		return "weekly"
	case ReportSession:
		return "session"
	default:
		return "unknown"
	}
}

// RawMessage is a fetched email reduced to the parts the extractor needs.
type RawMessage struct {
	Date    time.Time
	From    string
	Subject string
	HTML    string
	Text    string
	UID     uint32
}

// Body returns the HTML body when present, otherwise the plain-text body.
func (m RawMessage) Body() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Text
}

// Record is one extracted report, tagged by kind. Exactly one of Session or
// Progress is set, matching Kind.
type Record struct {
	Session  *Session
	Progress *WeeklyProgress
	Kind     ReportKind
}

// SessionRecord wraps a session in a Record.
func SessionRecord(s Session) Record {
	return Record{Kind: ReportSession, Session: &s}
}

// ProgressRecord wraps a weekly progress entry in a Record.
func ProgressRecord(p WeeklyProgress) Record {
	return Record{Kind: ReportWeekly, Progress: &p}
}
