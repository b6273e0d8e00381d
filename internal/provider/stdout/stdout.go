// Package stdout implements a Provider that prints messages to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/shineum/ses-forwarder/internal/provider"
)

// Provider prints the envelope and raw message in a human-readable format.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the message and returns a freshly generated ULID as its id.
func (p *Provider) Send(_ context.Context, msg *provider.Message) (string, error) {
	id := ulid.Make().String()

	var b strings.Builder
	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("Message-Id: %s\n", id))
	b.WriteString(fmt.Sprintf("Envelope-From: %s\n", msg.From))
	b.WriteString(fmt.Sprintf("Envelope-To: %s\n", strings.Join(msg.To, ", ")))
	b.WriteString(fmt.Sprintf("Size: %s\n", formatSize(len(msg.Data))))
	b.WriteString("----------------------------------------\n")
	b.Write(msg.Data)
	if len(msg.Data) > 0 && msg.Data[len(msg.Data)-1] != '\n' {
		b.WriteString("\n")
	}
	b.WriteString("========================================\n")

	if _, err := fmt.Fprint(p.writer, b.String()); err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}
	return id, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
