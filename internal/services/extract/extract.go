// Package extract turns fetched report emails into session and weekly
// progress records.
package extract

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/models"
)

var weekdayNames = models.Weekdays

// ErrUnknownReport is returned for messages whose subject matches neither
// report kind.
var ErrUnknownReport = errors.New("subject matches no report kind")

// Config holds the subject patterns used to classify messages. Matching is a
// case-insensitive substring test.
type Config struct {
	SessionSubject  string
	ProgressSubject string
}

// Classify returns the report kind for a subject line.
func (c Config) Classify(subject string) models.ReportKind {
	switch {
	case containsFold(subject, c.ProgressSubject):
		return models.ReportWeekly
	case containsFold(subject, c.SessionSubject):
		return models.ReportSession
	default:
		return models.ReportUnknown
	}
}

// ParseWarning describes a message that could not be fully extracted. When
// Dropped is true no record was produced for it.
type ParseWarning struct {
	Err     error
	Subject string
	Reason  string
	Kind    models.ReportKind
	UID     uint32
	Dropped bool
}

func (w *ParseWarning) Error() string {
	reason := w.Reason
	if reason == "" && w.Err != nil {
		reason = w.Err.Error()
	}
	return fmt.Sprintf("%s report uid %d (%q): %s", w.Kind, w.UID, w.Subject, reason)
}

func (w *ParseWarning) Unwrap() error {
	return w.Err
}

// Extractor dispatches messages to the extraction function for their kind
// and keeps the warnings raised along the way.
type Extractor struct {
	cfg      Config
	warnings []ParseWarning
	dropped  int
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Classify returns the report kind for a subject line.
func (e *Extractor) Classify(subject string) models.ReportKind {
	return e.cfg.Classify(subject)
}

// Extract parses one message. A non-nil error is always a *ParseWarning and
// means the message produced no record.
func (e *Extractor) Extract(msg models.RawMessage) (models.Record, error) {
	kind := e.cfg.Classify(msg.Subject)

	switch kind {
	case models.ReportSession:
		s, err := ExtractSession(msg)
		if err != nil {
			return models.Record{}, e.drop(msg, kind, err)
		}
		return models.SessionRecord(s), nil

	case models.ReportWeekly:
		p, notes, err := ExtractWeekly(msg)
		if err != nil {
			return models.Record{}, e.drop(msg, kind, err)
		}
		for _, note := range notes {
			e.note(msg, kind, note)
		}
		return models.ProgressRecord(p), nil

	default:
		return models.Record{}, e.drop(msg, kind, ErrUnknownReport)
	}
}

// Records lazily extracts every message of msgs. Messages that produce no
// record are logged and skipped. The sequence is as single-use as msgs.
func (e *Extractor) Records(msgs iter.Seq[models.RawMessage]) iter.Seq[models.Record] {
	return func(yield func(models.Record) bool) {
		for msg := range msgs {
			rec, err := e.Extract(msg)
			if err != nil {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Warnings returns every warning raised so far, dropped messages included.
func (e *Extractor) Warnings() []ParseWarning {
	out := make([]ParseWarning, len(e.warnings))
	copy(out, e.warnings)
	return out
}

// Dropped returns how many messages produced no record.
func (e *Extractor) Dropped() int {
	return e.dropped
}

func (e *Extractor) drop(msg models.RawMessage, kind models.ReportKind, err error) *ParseWarning {
	w := ParseWarning{UID: msg.UID, Subject: msg.Subject, Kind: kind, Err: err, Dropped: true}
	e.warnings = append(e.warnings, w)
	e.dropped++
	logger.Warn("Dropped report", "uid", msg.UID, "kind", kind.String(),
		"subject", strings.TrimSpace(msg.Subject), "error", err)
	return &w
}

func (e *Extractor) note(msg models.RawMessage, kind models.ReportKind, reason string) {
	e.warnings = append(e.warnings, ParseWarning{UID: msg.UID, Subject: msg.Subject, Kind: kind, Reason: reason})
	logger.Warn("Report extracted with warning", "uid", msg.UID, "kind", kind.String(), "warning", reason)
}
