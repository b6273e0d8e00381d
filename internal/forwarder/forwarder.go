// Package forwarder ties the event adapter, message store, recipient
// resolver, header rewriter and delivery provider together.
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shineum/ses-forwarder/internal/config"
	"github.com/shineum/ses-forwarder/internal/event"
	"github.com/shineum/ses-forwarder/internal/parser"
	"github.com/shineum/ses-forwarder/internal/provider"
	"github.com/shineum/ses-forwarder/internal/recipient"
	"github.com/shineum/ses-forwarder/internal/rewrite"
	"github.com/shineum/ses-forwarder/internal/storage"
)

// ErrSendFailed wraps transport errors returned by the provider.
var ErrSendFailed = errors.New("failed to send message")

// Result describes the outcome of one forwarded notification.
type Result struct {
	// MessageID is the inbound SES message id.
	MessageID string

	// Recipients are the resolved forward targets.
	Recipients []string

	// Dropped is true when no recipient matched and nothing was sent.
	Dropped bool

	// SentID is the provider's id for the forwarded message.
	SentID string
}

// Forwarder handles one notification per call. It holds no per-message
// state, so a single Forwarder may serve concurrent invocations.
type Forwarder struct {
	cfg      config.ForwardingConfig
	store    storage.Store
	provider provider.Provider
}

// New creates a Forwarder. The configuration is copied.
func New(cfg config.ForwardingConfig, store storage.Store, p provider.Provider) *Forwarder {
	return &Forwarder{
		cfg:      cfg.Clone(),
		store:    store,
		provider: p,
	}
}

// Handle parses a raw SES receipt notification and forwards the message.
func (f *Forwarder) Handle(ctx context.Context, raw []byte) (*Result, error) {
	in, err := event.Parse(raw)
	if err != nil {
		return nil, err
	}
	return f.Forward(ctx, in)
}

// Forward resolves the new recipients, fetches the stored message, rewrites
// its header and sends it with the first original recipient as envelope
// sender. A notification with no matching recipient returns a dropped Result
// and no error.
func (f *Forwarder) Forward(ctx context.Context, in *event.Inbound) (*Result, error) {
	slog.Info("received message",
		"message_id", in.MessageID,
		"source", in.Mail.Source,
		"recipients", in.Recipients,
	)

	result := &Result{MessageID: in.MessageID}
	result.Recipients = recipient.Resolve(in.Recipients, f.cfg.ForwardMapping)
	if len(result.Recipients) == 0 {
		slog.Info("finishing event, no matching recipients", "message_id", in.MessageID)
		result.Dropped = true
		return result, nil
	}
	slog.Info("rewriting original recipients",
		"original", in.Recipients,
		"new", result.Recipients,
	)

	obj := storage.NewObject(f.store, f.cfg.EmailBucket, storage.Key(f.cfg.EmailKeyPrefix, in.MessageID))
	raw, err := obj.Get(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", in.MessageID, err)
	}

	rw := rewrite.New(rewrite.Settings{
		FromEmail:     f.cfg.FromEmail,
		SubjectPrefix: f.cfg.SubjectPrefix,
	})
	if err := rw.Rewrite(msg, in.Recipients); err != nil {
		return nil, fmt.Errorf("message %s: %w", in.MessageID, err)
	}

	sender := provider.NewSender(f.provider)
	sender.SetEmail(msg.Bytes())

	slog.Info("sending email",
		"message_id", in.MessageID,
		"new", result.Recipients,
		"original", in.Recipients,
	)
	id, err := sender.Send(ctx, result.Recipients, in.FirstRecipient())
	if err != nil {
		if errors.Is(err, provider.ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	result.SentID = id
	slog.Info("message forwarded",
		"message_id", in.MessageID,
		"provider", f.provider.Name(),
		"sent_id", id,
	)
	return result, nil
}
