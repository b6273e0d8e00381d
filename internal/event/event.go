// Package event validates SES receipt notifications and extracts the fields
// the forwarder needs.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-lambda-go/events"
)

// Source is the event source tag of an SES receipt notification.
const Source = "aws:ses"

// SupportedVersions lists the notification schema versions Parse accepts.
var SupportedVersions = []string{"1.0"}

// ErrInvalidEvent is returned for notifications that are not SES receipts.
var ErrInvalidEvent = errors.New("invalid event")

// Inbound is one received message as described by its notification.
type Inbound struct {
	// MessageID is the SES message id, used as the object key of the stored
	// message.
	MessageID string

	// Recipients are the envelope recipients in notification order, neither
	// deduplicated nor case folded.
	Recipients []string

	// Mail is the notification's mail section, kept for logging.
	Mail events.SimpleEmailMessage
}

// Parse decodes a raw notification and validates its first record.
func Parse(raw []byte) (*Inbound, error) {
	var ev events.SimpleEmailEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return FromSimpleEmailEvent(ev)
}

// FromSimpleEmailEvent validates a decoded notification. Only the first
// record is used.
func FromSimpleEmailEvent(ev events.SimpleEmailEvent) (*Inbound, error) {
	if len(ev.Records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrInvalidEvent)
	}

	record := ev.Records[0]
	if record.EventSource != Source {
		return nil, fmt.Errorf("%w: event source %q", ErrInvalidEvent, record.EventSource)
	}
	if !slices.Contains(SupportedVersions, record.EventVersion) {
		return nil, fmt.Errorf("%w: event version %q", ErrInvalidEvent, record.EventVersion)
	}

	return &Inbound{
		MessageID:  record.SES.Mail.MessageID,
		Recipients: slices.Clone(record.SES.Receipt.Recipients),
		Mail:       record.SES.Mail,
	}, nil
}

// FirstRecipient returns the first original recipient, or "" if there is
// none.
func (in *Inbound) FirstRecipient() string {
	if len(in.Recipients) == 0 {
		return ""
	}
	return in.Recipients[0]
}
