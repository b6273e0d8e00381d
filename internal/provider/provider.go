// Package provider defines the interface for mail delivery backends.
package provider

import (
	"context"
)

// Message is a raw message together with its envelope.
type Message struct {
	// From is the envelope sender.
	From string

	// To are the envelope recipients. They need not appear in the message
	// header.
	To []string

	// Data is the complete RFC 5322 message.
	Data []byte
}

// Provider is the interface that mail delivery backends must implement.
// Each provider hands a raw message to the target service (e.g., SES, an SMTP
// relay, stdout).
type Provider interface {
	// Send delivers the message and returns the backend's message id.
	// Transport errors are returned as is; providers do not retry.
	Send(ctx context.Context, msg *Message) (string, error)

	// Name returns the human-readable name of this provider.
	Name() string
}
