package provider

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// ErrNotReady is returned when Send is called before SetEmail.
var ErrNotReady = errors.New("no email set before sending")

// ErrNoDestinations is returned when Send has no destination or no envelope
// sender.
var ErrNoDestinations = errors.New("no destinations or envelope sender")

// Sender holds one outgoing message for a provider. A Sender is created per
// message; the provider behind it may be shared.
type Sender struct {
	provider Provider
	email    []byte
}

// NewSender creates a Sender with no message attached.
func NewSender(p Provider) *Sender {
	return &Sender{provider: p}
}

// SetEmail attaches the raw message to send.
func (s *Sender) SetEmail(raw []byte) {
	s.email = slices.Clone(raw)
}

// Email returns the attached message, or nil.
func (s *Sender) Email() []byte {
	return s.email
}

// Send delivers the attached message to destinations with envelopeSender as
// the envelope sender and returns the provider's message id.
func (s *Sender) Send(ctx context.Context, destinations []string, envelopeSender string) (string, error) {
	if s.email == nil {
		return "", ErrNotReady
	}
	if len(destinations) == 0 || envelopeSender == "" {
		return "", ErrNoDestinations
	}

	slog.Debug("sending email",
		"provider", s.provider.Name(),
		"envelope_sender", envelopeSender,
		"destinations", destinations,
		"size", len(s.email),
	)

	id, err := s.provider.Send(ctx, &Message{
		From: envelopeSender,
		To:   destinations,
		Data: s.email,
	})
	if err != nil {
		slog.Error("failed to send message",
			"provider", s.provider.Name(),
			"error", err,
		)
		return "", err
	}
	return id, nil
}
