package mail

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
)

const multipartMessage = "From: Synthesis Tutor <no-reply@tutor.synthesis.com>\r\n" +
	"To: parent@example.com\r\n" +
	"Subject: Synthesis Session: Fractions\r\n" +
	"Date: Sat, 13 Sep 2025 16:44:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Saturday, 4:44pm - 37.8 minutes\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"<p style=3D\"color:red\">Saturday, 4:44pm - 37.8 minutes</p>\r\n" +
	"--b1--\r\n"

const latin1Message = "From: no-reply@tutor.synthesis.com\r\n" +
	"Subject: =?utf-8?q?Your_week_of_progress_with_Synthesis_Tutor?=\r\n" +
	"Date: Mon, 15 Sep 2025 06:00:00 +0000\r\n" +
	"Content-Type: text/plain; charset=iso-8859-1\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"Caf=E9 minutes\r\n"

const noHeaderMessage = "From: no-reply@tutor.synthesis.com\r\n" +
	"Subject: Synthesis Session: Plain\r\n" +
	"\r\n" +
	"Sunday, 9:00am - 10 minutes\r\n"

const attachmentOnly = "From: no-reply@tutor.synthesis.com\r\n" +
	"Subject: Synthesis Session: Attachment\r\n" +
	"Content-Type: multipart/mixed; boundary=\"b2\"\r\n" +
	"\r\n" +
	"--b2\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
	"\r\n" +
	"%PDF\r\n" +
	"--b2--\r\n"

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage(42, strings.NewReader(multipartMessage))
	if err != nil {
		t.Fatalf("ParseMessage() failed: %v", err)
	}
	if msg.UID != 42 {
		t.Errorf("UID = %d", msg.UID)
	}
	if msg.Subject != "Synthesis Session: Fractions" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.From != "no-reply@tutor.synthesis.com" {
		t.Errorf("From = %q", msg.From)
	}
	if !msg.Date.Equal(time.Date(2025, 9, 13, 16, 44, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", msg.Date)
	}
	if !strings.Contains(msg.HTML, `<p style="color:red">`) {
		t.Errorf("HTML not decoded: %q", msg.HTML)
	}
	if !strings.Contains(msg.Text, "37.8 minutes") {
		t.Errorf("Text = %q", msg.Text)
	}
}

func TestParseMessage_Charset(t *testing.T) {
	msg, err := ParseMessage(1, strings.NewReader(latin1Message))
	if err != nil {
		t.Fatalf("ParseMessage() failed: %v", err)
	}
	if !strings.Contains(msg.Text, "Café") {
		t.Errorf("Text = %q, want decoded latin-1", msg.Text)
	}
	if msg.Subject != "Your week of progress with Synthesis Tutor" {
		t.Errorf("Subject = %q", msg.Subject)
	}
}

func TestParseMessage_NoContentType(t *testing.T) {
	msg, err := ParseMessage(1, strings.NewReader(noHeaderMessage))
	if err != nil {
		t.Fatalf("ParseMessage() failed: %v", err)
	}
	if !strings.Contains(msg.Text, "Sunday, 9:00am") {
		t.Errorf("Text = %q", msg.Text)
	}
	if !msg.Date.IsZero() {
		t.Errorf("Date = %v, want zero", msg.Date)
	}
}

func TestParseMessage_NoBody(t *testing.T) {
	if _, err := ParseMessage(1, strings.NewReader(attachmentOnly)); err == nil {
		t.Error("ParseMessage() should fail without a text part")
	}
}

type fakeMessage struct {
	subject string
	raw     string
}

type fakeClient struct {
	messages   map[uint32]fakeMessage
	loginErr   error
	searchErr  error
	fetches    [][]imap.FetchItem
	selected   string
	readOnly   bool
	loggedOut  bool
	searchFrom []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{messages: make(map[uint32]fakeMessage)}
}

func (c *fakeClient) add(uid uint32, subject, raw string) {
	c.messages[uid] = fakeMessage{subject: subject, raw: raw}
}

func (c *fakeClient) Login(_, _ string) error { return c.loginErr }

func (c *fakeClient) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	c.selected = name
	c.readOnly = readOnly
	return &imap.MailboxStatus{Name: name}, nil
}

func (c *fakeClient) UidSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	c.searchFrom = criteria.Header.Values("From")
	uids := make([]uint32, 0, len(c.messages))
	for uid := range c.messages {
		uids = append(uids, uid)
	}
	return uids, nil
}

func (c *fakeClient) UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error {
	defer close(ch)
	c.fetches = append(c.fetches, items)

	envelope := slices.Contains(items, imap.FetchEnvelope)
	uids := make([]uint32, 0, len(c.messages))
	for uid := range c.messages {
		uids = append(uids, uid)
	}
	slices.Sort(uids)
	slices.Reverse(uids)

	for _, uid := range uids {
		if !seqset.Contains(uid) {
			continue
		}
		m := c.messages[uid]
		msg := &imap.Message{Uid: uid}
		if envelope {
			msg.Envelope = &imap.Envelope{Subject: m.subject}
		} else {
			msg.Body = map[*imap.BodySectionName]imap.Literal{
				{}: bytes.NewReader([]byte(m.raw)),
			}
		}
		ch <- msg
	}
	return nil
}

func (c *fakeClient) Logout() error {
	c.loggedOut = true
	return nil
}

func testConfig() Config {
	return Config{
		Server:    "imap.example.com",
		Port:      993,
		Sender:    "no-reply@tutor.synthesis.com",
		Subjects:  []string{"Synthesis Session:", "progress with Synthesis Tutor"},
		BatchSize: 2,
	}
}

func sessionRaw(n int) string {
	return fmt.Sprintf("Subject: Synthesis Session: Topic %d\r\nContent-Type: text/plain\r\n\r\nSunday, 9:00am - %d minutes\r\n", n, n)
}

func dialer(c *fakeClient) Dialer {
	return func(Config) (Client, error) { return c, nil }
}

func TestFetcher_Messages(t *testing.T) {
	c := newFakeClient()
	c.add(3, "Synthesis Session: Topic 3", sessionRaw(3))
	c.add(1, "Synthesis Session: Topic 1", sessionRaw(1))
	c.add(2, "Unrelated newsletter", sessionRaw(2))
	c.add(5, "Your week of progress with Synthesis Tutor", sessionRaw(5))
	c.add(4, "Synthesis Session: Broken", "Subject: Broken\r\nContent-Type: multipart/mixed; boundary=x\r\n\r\n--x\r\nContent-Type: application/pdf\r\n\r\nx\r\n--x--\r\n")

	f := NewWithDialer(testConfig(), dialer(c))

	var uids []uint32
	for msg := range f.Messages() {
		uids = append(uids, msg.UID)
	}
	if err := f.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if want := []uint32{1, 3, 5}; !slices.Equal(uids, want) {
		t.Errorf("uids = %v, want %v", uids, want)
	}
	want := Stats{Searched: 5, Matched: 4, Fetched: 3, Skipped: 1, Batches: 3}
	if f.Stats() != want {
		t.Errorf("Stats() = %+v, want %+v", f.Stats(), want)
	}
	if c.selected != "INBOX" || !c.readOnly {
		t.Errorf("selected %q readOnly=%v", c.selected, c.readOnly)
	}
	if !slices.Equal(c.searchFrom, []string{"no-reply@tutor.synthesis.com"}) {
		t.Errorf("search From = %v", c.searchFrom)
	}
	if !c.loggedOut {
		t.Error("connection should be logged out")
	}
}

func TestFetcher_Limit(t *testing.T) {
	c := newFakeClient()
	for uid := uint32(1); uid <= 6; uid++ {
		c.add(uid, "Synthesis Session: x", sessionRaw(int(uid)))
	}
	cfg := testConfig()
	cfg.Limit = 2

	f := NewWithDialer(cfg, dialer(c))
	var uids []uint32
	for msg := range f.Messages() {
		uids = append(uids, msg.UID)
	}
	if want := []uint32{5, 6}; !slices.Equal(uids, want) {
		t.Errorf("uids = %v, want newest %v", uids, want)
	}
}

func TestFetcher_EarlyStop(t *testing.T) {
	c := newFakeClient()
	for uid := uint32(1); uid <= 6; uid++ {
		c.add(uid, "Synthesis Session: x", sessionRaw(int(uid)))
	}

	f := NewWithDialer(testConfig(), dialer(c))
	for range f.Messages() {
		break
	}
	if f.Err() != nil {
		t.Errorf("Err() = %v", f.Err())
	}
	if f.Stats().Batches != 1 {
		t.Errorf("Batches = %d, want 1", f.Stats().Batches)
	}
	if !c.loggedOut {
		t.Error("connection should be logged out after early stop")
	}
}

func TestFetcher_SingleUse(t *testing.T) {
	c := newFakeClient()
	c.add(1, "Synthesis Session: x", sessionRaw(1))
	f := NewWithDialer(testConfig(), dialer(c))

	for range f.Messages() {
	}
	count := 0
	for range f.Messages() {
		count++
	}
	if count != 0 {
		t.Errorf("second iteration yielded %d messages", count)
	}
	if !errors.Is(f.Err(), ErrConsumed) {
		t.Errorf("Err() = %v, want ErrConsumed", f.Err())
	}
}

func TestFetcher_ConnectionErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		dial   Dialer
		wantOp string
	}{
		{
			name:   "dial",
			dial:   func(Config) (Client, error) { return nil, boom },
			wantOp: "dial",
		},
		{
			name: "login",
			dial: func(Config) (Client, error) {
				c := newFakeClient()
				c.loginErr = boom
				return c, nil
			},
			wantOp: "login",
		},
		{
			name: "search",
			dial: func(Config) (Client, error) {
				c := newFakeClient()
				c.searchErr = boom
				return c, nil
			},
			wantOp: "search",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewWithDialer(testConfig(), tt.dial)
			for range f.Messages() {
				t.Fatal("no messages expected")
			}
			var connErr *ConnectionError
			if !errors.As(f.Err(), &connErr) {
				t.Fatalf("Err() = %v, want *ConnectionError", f.Err())
			}
			if connErr.Op != tt.wantOp || !errors.Is(f.Err(), boom) {
				t.Errorf("ConnectionError = %+v", connErr)
			}
		})
	}
}

func TestSubjectMatches(t *testing.T) {
	patterns := []string{"Synthesis Session:", "progress with Synthesis Tutor"}
	tests := []struct {
		subject string
		want    bool
	}{
		{"Synthesis Session: Fractions", true},
		{"SYNTHESIS SESSION: caps", true},
		{"Your week of progress with Synthesis Tutor", true},
		{"Synthesis newsletter", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := subjectMatches(tt.subject, patterns); got != tt.want {
			t.Errorf("subjectMatches(%q) = %v, want %v", tt.subject, got, tt.want)
		}
	}
}

func TestConfig_Address(t *testing.T) {
	if got := (Config{Server: "imap.gmail.com", Port: 993}).Address(); got != "imap.gmail.com:993" {
		t.Errorf("Address() = %q", got)
	}
}
