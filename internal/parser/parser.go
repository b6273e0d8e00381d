// Package parser splits a raw RFC 5322 message into header fields and body
// lines without decoding either.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shineum/ses-forwarder/internal/email"
)

// ErrMalformedMessage is returned when the message has no blank line
// separating the header from the body.
var ErrMalformedMessage = errors.New("malformed message")

// Parse splits raw on the CRLF line terminator. Lines before the first empty
// line are grouped into header fields; lines from it on are the body.
func Parse(raw []byte) (*email.Message, error) {
	lines := strings.Split(string(raw), email.LineTerminator)

	sep := -1
	for i, line := range lines {
		if line == "" {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil, fmt.Errorf("%w: no blank line after %d header lines", ErrMalformedMessage, len(lines))
	}

	return &email.Message{
		Header: email.NewHeader(lines[:sep]),
		Body:   lines[sep:],
	}, nil
}
