// Package mailbody extracts the readable parts of a raw RFC 5322 message so
// that a suspected phishing email can be previewed from its .eml source.
package mailbody

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/jhillyerd/enmime"
	"golang.org/x/net/idna"
)

// ErrEmptyMessage is returned when the input holds no message at all.
var ErrEmptyMessage = errors.New("empty message")

// Body is the preview-relevant content of a message.
type Body struct {
	Subject string `json:"subject,omitempty"`
	From    string `json:"from,omitempty"`
	// SenderDomain is the lower-cased ASCII domain of the From address, or
	// empty when the header does not parse as an address.
	SenderDomain string `json:"senderDomain,omitempty"`
	// Text is the plain text body. For HTML-only messages it is the text
	// rendition of the HTML part.
	Text string `json:"-"`
	// Warnings lists recoverable MIME problems found while parsing.
	Warnings []string `json:"warnings,omitempty"`
}

// Extract parses a raw message and returns its subject, sender and plain
// text body. Malformed MIME structure is tolerated and reported in
// Body.Warnings; only unreadable input is an error.
func Extract(r io.Reader) (Body, error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return Body{}, ErrEmptyMessage
		}
		return Body{}, fmt.Errorf("reading message: %w", err)
	}

	env, err := enmime.ReadEnvelope(br)
	if err != nil {
		return Body{}, fmt.Errorf("reading message: %w", err)
	}

	b := Body{
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		Text:    strings.TrimSpace(env.Text),
	}
	b.SenderDomain = senderDomain(b.From)

	for _, e := range env.Errors {
		b.Warnings = append(b.Warnings, e.Error())
	}

	return b, nil
}

func senderDomain(from string) string {
	address, err := mail.ParseAddress(from)
	if err != nil {
		return ""
	}
	_, domain, ok := strings.Cut(strings.ToLower(address.Address), "@")
	if !ok {
		return ""
	}
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return domain
	}
	return ascii
}
