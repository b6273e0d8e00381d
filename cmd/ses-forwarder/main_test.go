package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/shineum/ses-forwarder/internal/config"
	"github.com/shineum/ses-forwarder/internal/forwarder"
	"github.com/shineum/ses-forwarder/internal/provider"
	"github.com/shineum/ses-forwarder/internal/storage"
)

const testEvent = `{
  "Records": [{
    "eventSource": "aws:ses",
    "eventVersion": "1.0",
    "ses": {
      "mail": {"messageId": "abc123", "source": "someone@someplace.com"},
      "receipt": {"recipients": ["info@example.com"]}
    }
  }]
}`

const testMessage = "From: Some One <someone@someplace.com>\r\n" +
	"Subject: Hello\r\n" +
	"To: info@example.com\r\n" +
	"\r\n" +
	"Test message.\r\n"

func TestNewProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{name: "ses", cfg: config.Config{Provider: "ses"}, wantName: "ses"},
		{name: "stdout", cfg: config.Config{Provider: "stdout"}, wantName: "stdout"},
		{name: "smtp", cfg: config.Config{Provider: "smtp", SMTP: config.SMTPConfig{Addr: "mx:25"}}, wantName: "smtp"},
		{name: "smtp without addr", cfg: config.Config{Provider: "smtp"}, wantErr: true},
		{name: "unknown", cfg: config.Config{Provider: "graph"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := newProvider(&tt.cfg, aws.Config{Region: "us-east-1"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name: got %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	s, err := newStore(&config.Config{Storage: "s3"}, aws.Config{Region: "us-east-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != "s3" {
		t.Errorf("Name: got %q, want %q", s.Name(), "s3")
	}

	s, err = newStore(&config.Config{Storage: "dir", StorageDir: t.TempDir()}, aws.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != "dir" {
		t.Errorf("Name: got %q, want %q", s.Name(), "dir")
	}

	if _, err := newStore(&config.Config{Storage: "gcs"}, aws.Config{}); err == nil {
		t.Error("expected error for unknown storage")
	}
}

func TestHandleFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "mail"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "mail", "abc123"), []byte(testMessage), 0o644); err != nil {
		t.Fatal(err)
	}
	eventPath := filepath.Join(root, "event.json")
	if err := os.WriteFile(eventPath, []byte(testEvent), 0o644); err != nil {
		t.Fatal(err)
	}

	fwdCfg := config.DefaultForwarding()
	fwdCfg.EmailBucket = "mail"
	prov := &recordingProvider{}
	fwd := forwarder.New(fwdCfg, storage.NewDir(root), prov)

	if err := handleFile(context.Background(), fwd, eventPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prov.calls != 1 {
		t.Errorf("sends: got %d, want 1", prov.calls)
	}

	if err := handleFile(context.Background(), fwd, filepath.Join(root, "missing.json")); err == nil {
		t.Error("expected error for missing event file")
	}
}

type recordingProvider struct {
	calls int
}

func (p *recordingProvider) Send(_ context.Context, _ *provider.Message) (string, error) {
	p.calls++
	return "id", nil
}

func (p *recordingProvider) Name() string {
	return "recording"
}
