// Package main is the entry point for the SES forwarder Lambda function.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/pflag"

	"github.com/shineum/ses-forwarder/internal/config"
	"github.com/shineum/ses-forwarder/internal/forwarder"
	"github.com/shineum/ses-forwarder/internal/provider"
	"github.com/shineum/ses-forwarder/internal/provider/relay"
	"github.com/shineum/ses-forwarder/internal/provider/ses"
	"github.com/shineum/ses-forwarder/internal/provider/stdout"
	"github.com/shineum/ses-forwarder/internal/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("ses-forwarder failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("ses-forwarder", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", os.Getenv("FORWARDER_CONFIG"), "path to YAML configuration file (optional)")
	eventPath := flags.StringP("event", "e", "", "handle a single SES event from this JSON file and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.Logging.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	var awsCfg aws.Config
	if cfg.Provider == "ses" || cfg.Storage == "s3" {
		awsCfg, err = loadAWSConfig(ctx, cfg)
		if err != nil {
			return err
		}
	}

	store, err := newStore(cfg, awsCfg)
	if err != nil {
		return err
	}
	prov, err := newProvider(cfg, awsCfg)
	if err != nil {
		return err
	}

	fwd := forwarder.New(cfg.Forwarding, store, prov)

	slog.Info("starting ses-forwarder",
		"provider", prov.Name(),
		"storage", store.Name(),
		"bucket", cfg.Forwarding.EmailBucket,
		"from_email", cfg.Forwarding.FromEmail,
	)

	if *eventPath != "" {
		return handleFile(ctx, fwd, *eventPath)
	}

	lambda.StartWithOptions(func(ctx context.Context, raw json.RawMessage) error {
		_, err := fwd.Handle(ctx, raw)
		return err
	}, lambda.WithEnableSIGTERM(func() {
		slog.Info("received SIGTERM, shutting down")
	}))
	return nil
}

// handleFile forwards the message described by a stored SES event.
func handleFile(ctx context.Context, fwd *forwarder.Forwarder, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read event file: %w", err)
	}

	result, err := fwd.Handle(ctx, raw)
	if err != nil {
		return err
	}

	slog.Info("event handled",
		"message_id", result.MessageID,
		"recipients", result.Recipients,
		"dropped", result.Dropped,
		"sent_id", result.SentID,
	)
	return nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// loadAWSConfig builds the shared SDK configuration. Static credentials are
// used only when both keys are configured; otherwise the default chain
// (Lambda execution role, profile, IMDS) applies.
func loadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	if cfg.StaticCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// newStore chooses where stored messages are read from.
func newStore(cfg *config.Config, awsCfg aws.Config) (storage.Store, error) {
	switch cfg.Storage {
	case "s3":
		slog.Info("using S3 storage", "bucket", cfg.Forwarding.EmailBucket, "region", awsCfg.Region)
		return storage.NewS3(s3.NewFromConfig(awsCfg)), nil
	case "dir":
		slog.Info("using directory storage", "dir", cfg.StorageDir)
		return storage.NewDir(cfg.StorageDir), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// newProvider chooses the delivery backend for forwarded messages.
func newProvider(cfg *config.Config, awsCfg aws.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "ses":
		slog.Info("using AWS SES provider", "region", awsCfg.Region)
		return ses.New(awsCfg), nil
	case "smtp":
		if cfg.SMTP.Addr == "" {
			return nil, errors.New("smtp provider selected but SMTP_RELAY_ADDR is required")
		}
		slog.Info("using SMTP relay provider", "addr", cfg.SMTP.Addr)
		return relay.New(relay.Config{
			Addr:     cfg.SMTP.Addr,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		}), nil
	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
