// Package relay implements a Provider that hands messages to an SMTP
// smarthost.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/shineum/ses-forwarder/internal/provider"
)

// Config holds the smarthost address and optional credentials.
type Config struct {
	// Addr is host:port of the relay.
	Addr string

	// Username and Password enable AUTH PLAIN when both are set.
	Username string
	Password string
}

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// Provider relays messages over SMTP with an explicit envelope.
type Provider struct {
	addr     string
	auth     sasl.Client
	sendMail sendMailFunc
}

// New creates a relay Provider.
func New(cfg Config) *Provider {
	p := &Provider{addr: cfg.Addr, sendMail: smtp.SendMail}
	if cfg.Username != "" && cfg.Password != "" {
		p.auth = sasl.NewPlainClient("", cfg.Username, cfg.Password)
	}
	return p
}

// Send opens a connection, upgrades to TLS when offered, and transmits the
// message. SMTP returns no message id, so the id is always empty.
func (p *Provider) Send(ctx context.Context, msg *provider.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	slog.Debug("relaying message",
		"addr", p.addr,
		"auth_enabled", p.auth != nil,
		"recipients", len(msg.To),
	)

	if err := p.sendMail(p.addr, p.auth, msg.From, msg.To, bytes.NewReader(msg.Data)); err != nil {
		return "", fmt.Errorf("SMTP relay to %s failed: %w", p.addr, err)
	}
	return "", nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}
