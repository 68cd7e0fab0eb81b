package mail

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

// ParseMessage decodes an RFC 822 message into a RawMessage. Transfer
// encodings and charsets are decoded; the first text/html and text/plain
// inline parts are kept and attachments ignored.
func ParseMessage(uid uint32, r io.Reader) (models.RawMessage, error) {
	mr, err := gomail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return models.RawMessage{}, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	msg := models.RawMessage{UID: uid}
	msg.Subject, _ = mr.Header.Subject()
	if date, err := mr.Header.Date(); err == nil {
		msg.Date = date
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	} else {
		msg.From = strings.TrimSpace(mr.Header.Get("From"))
	}

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			return models.RawMessage{}, fmt.Errorf("failed to read part: %w", err)
		}

		var contentType string
		switch h := p.Header.(type) {
		case *gomail.InlineHeader:
			contentType, _, err = h.ContentType()
		case *gomail.AttachmentHeader:
			// Parts without a Content-Type are plain text unless explicitly attached.
			if h.Get("Content-Disposition") != "" || h.Get("Content-Type") != "" {
				continue
			}
		default:
			continue
		}
		if contentType == "" {
			contentType = "text/plain"
		} else if err != nil {
			continue
		}
		body, err := io.ReadAll(p.Body)
		if err != nil {
			return models.RawMessage{}, fmt.Errorf("failed to read %s part: %w", contentType, err)
		}

		switch contentType {
		case "text/html":
			if msg.HTML == "" {
				msg.HTML = string(body)
			}
		case "text/plain":
			if msg.Text == "" {
				msg.Text = string(body)
			}
		}
	}

	if msg.HTML == "" && msg.Text == "" {
		return models.RawMessage{}, errors.New("message has no text body")
	}
	return msg, nil
}
