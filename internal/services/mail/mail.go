// Package mail fetches tutor report emails over IMAP.
package mail

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/models"
)

// ErrConsumed is reported by Err when Messages is iterated more than once.
var ErrConsumed = errors.New("message sequence already consumed")

// Config holds the mailbox connection and filter settings.
type Config struct {
	Server    string
	Username  string
	Password  string
	Mailbox   string
	Sender    string
	Subjects  []string
	Timeout   time.Duration
	Port      int
	Limit     int
	BatchSize int
	UseTLS    bool
}

// Address returns host:port of the IMAP server.
func (c Config) Address() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// ConnectionError wraps a failure talking to the IMAP server.
type ConnectionError struct {
	Err error
	Op  string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("imap %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Client is the subset of the IMAP client used by the Fetcher.
type Client interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// Dialer opens a connection to the server described by cfg.
type Dialer func(cfg Config) (Client, error)

// Stats counts what a fetch saw.
type Stats struct {
	Searched int
	Matched  int
	Fetched  int
	Skipped  int
	Batches  int
}

// Fetcher streams matching messages from a mailbox. A Fetcher is single-use.
type Fetcher struct {
	dial  Dialer
	err   error
	cfg   Config
	stats Stats
	used  bool
}

// New creates a Fetcher that dials the real server.
func New(cfg Config) *Fetcher {
	return NewWithDialer(cfg, dialIMAP)
}

// NewWithDialer creates a Fetcher using dial to connect.
func NewWithDialer(cfg Config, dial Dialer) *Fetcher {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &Fetcher{cfg: cfg, dial: dial}
}

// Err returns the error that stopped iteration, if any.
func (f *Fetcher) Err() error {
	return f.err
}

// Stats returns the counters of the last iteration.
func (f *Fetcher) Stats() Stats {
	return f.stats
}

// Messages returns the matching messages oldest first. Stopping the range
// early closes the connection without fetching further batches.
func (f *Fetcher) Messages() iter.Seq[models.RawMessage] {
	return func(yield func(models.RawMessage) bool) {
		if f.used {
			f.err = ErrConsumed
			return
		}
		f.used = true
		f.err = f.run(yield)
	}
}

func (f *Fetcher) run(yield func(models.RawMessage) bool) error {
	c, err := f.dial(f.cfg)
	if err != nil {
		return &ConnectionError{Op: "dial", Err: err}
	}
	defer func() {
		if err := c.Logout(); err != nil {
			logger.Debug("IMAP logout failed", "error", err)
		}
	}()

	if err := c.Login(f.cfg.Username, f.cfg.Password); err != nil {
		return &ConnectionError{Op: "login", Err: err}
	}
	if _, err := c.Select(f.cfg.Mailbox, true); err != nil {
		return &ConnectionError{Op: "select", Err: err}
	}

	criteria := imap.NewSearchCriteria()
	if f.cfg.Sender != "" {
		criteria.Header.Add("From", f.cfg.Sender)
	}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return &ConnectionError{Op: "search", Err: err}
	}
	uids = newest(uids, f.cfg.Limit)
	f.stats.Searched = len(uids)
	logger.Info("Searched mailbox", "mailbox", f.cfg.Mailbox, "sender", f.cfg.Sender, "messages", len(uids))

	for batch := range slices.Chunk(uids, f.cfg.BatchSize) {
		f.stats.Batches++

		matched, err := f.matchSubjects(c, batch)
		if err != nil {
			return err
		}
		f.stats.Matched += len(matched)
		if len(matched) == 0 {
			continue
		}

		msgs, err := fetch(c, matched, []imap.FetchItem{bodySection.FetchItem(), imap.FetchUid})
		if err != nil {
			return &ConnectionError{Op: "fetch", Err: err}
		}
		for _, msg := range msgs {
			raw, err := decode(msg)
			if err != nil {
				f.stats.Skipped++
				logger.Warn("Skipping undecodable message", "uid", msg.Uid, "error", err)
				continue
			}
			f.stats.Fetched++
			if !yield(raw) {
				return nil
			}
		}
	}

	logger.Debug("Fetch finished", "searched", f.stats.Searched, "matched", f.stats.Matched,
		"fetched", f.stats.Fetched, "skipped", f.stats.Skipped)
	return nil
}

var bodySection = &imap.BodySectionName{Peek: true}

// matchSubjects fetches envelopes for uids and keeps those whose subject
// contains one of the configured patterns.
func (f *Fetcher) matchSubjects(c Client, uids []uint32) ([]uint32, error) {
	if len(f.cfg.Subjects) == 0 {
		return uids, nil
	}
	msgs, err := fetch(c, uids, []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid})
	if err != nil {
		return nil, &ConnectionError{Op: "fetch", Err: err}
	}

	var matched []uint32
	for _, msg := range msgs {
		if msg.Envelope == nil {
			continue
		}
		if subjectMatches(msg.Envelope.Subject, f.cfg.Subjects) {
			matched = append(matched, msg.Uid)
		}
	}
	return matched, nil
}

func subjectMatches(subject string, patterns []string) bool {
	subject = strings.ToLower(subject)
	for _, p := range patterns {
		if p != "" && strings.Contains(subject, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// newest sorts uids ascending and keeps the last limit of them.
func newest(uids []uint32, limit int) []uint32 {
	uids = slices.Clone(uids)
	slices.Sort(uids)
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}
	return uids
}

func fetch(c Client, uids []uint32, items []imap.FetchItem) ([]*imap.Message, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()

	var msgs []*imap.Message
	for msg := range ch {
		msgs = append(msgs, msg)
	}
	if err := <-done; err != nil {
		return nil, err
	}

	slices.SortFunc(msgs, func(a, b *imap.Message) int {
		return cmp.Compare(a.Uid, b.Uid)
	})
	return msgs, nil
}

func decode(msg *imap.Message) (models.RawMessage, error) {
	body := msg.GetBody(bodySection)
	if body == nil {
		return models.RawMessage{}, errors.New("server returned no body")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return models.RawMessage{}, fmt.Errorf("failed to read body: %w", err)
	}
	return ParseMessage(msg.Uid, bytes.NewReader(data))
}

func dialIMAP(cfg Config) (Client, error) {
	var (
		c   *client.Client
		err error
	)
	if cfg.UseTLS {
		c, err = client.DialTLS(cfg.Address(), nil)
	} else {
		c, err = client.Dial(cfg.Address())
	}
	if err != nil {
		return nil, err
	}
	c.Timeout = cfg.Timeout
	logger.Debug("Connected to IMAP server", "address", cfg.Address(), "tls", cfg.UseTLS)
	return c, nil
}
