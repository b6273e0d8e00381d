// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the forwarder.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPrefixKey is the subject prefix entry applied to recipients without
// one of their own.
const DefaultPrefixKey = "Default"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete application configuration.
type Config struct {
	Forwarding ForwardingConfig `yaml:"forwarding"`
	Provider   string           `yaml:"provider"`
	Storage    string           `yaml:"storage"`
	StorageDir string           `yaml:"storage_dir"`
	AWS        AWSConfig        `yaml:"aws"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ForwardingConfig holds the forwarding rules. It is read-only once loaded;
// use Clone to hand an independent copy to an invocation.
type ForwardingConfig struct {
	// FromEmail is the verified sender address. Empty means the first
	// original recipient is used.
	FromEmail string `yaml:"from_email"`

	// SubjectPrefix maps an original recipient to a subject prefix and must
	// contain the DefaultPrefixKey entry.
	SubjectPrefix map[string]string `yaml:"subject_prefix"`

	// EmailBucket is the bucket the receipt rule stores messages in.
	EmailBucket string `yaml:"email_bucket"`

	// EmailKeyPrefix is prepended to the message id to form the object key.
	EmailKeyPrefix string `yaml:"email_key_prefix"`

	// ForwardMapping maps a lower-case address or bare domain to its
	// destinations. An empty list drops the message.
	ForwardMapping map[string][]string `yaml:"forward_mapping"`
}

// AWSConfig holds AWS client settings. Empty values fall back to the SDK's
// default credential and region chain.
type AWSConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// SMTPConfig holds the SMTP relay used by the smtp provider.
type SMTPConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg.finish()
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg.finish()
}

// DefaultForwarding returns the built-in example rules: three example.com
// lists, and a drop rule for every other example.com address.
func DefaultForwarding() ForwardingConfig {
	return ForwardingConfig{
		SubjectPrefix: map[string]string{
			DefaultPrefixKey:      "",
			"admin@example.com":   "[Admin] ",
			"info@example.com":    "[Info] ",
			"members@example.com": "[Members] ",
		},
		EmailBucket: "s3-bucket-for-email",
		ForwardMapping: map[string][]string{
			"admin@example.com":   {"user1@example.com", "user2@example.com"},
			"info@example.com":    {"user1@example.com", "user2@example.com", "user3@example.com"},
			"members@example.com": {"user3@example.com", "user4@example.com", "user5@example.com"},
			"example.com":         {},
		},
	}
}

// Clone returns a deep copy.
func (f ForwardingConfig) Clone() ForwardingConfig {
	c := f
	c.SubjectPrefix = maps.Clone(f.SubjectPrefix)
	if f.ForwardMapping != nil {
		c.ForwardMapping = make(map[string][]string, len(f.ForwardMapping))
		for k, v := range f.ForwardMapping {
			c.ForwardMapping[k] = slices.Clone(v)
		}
	}
	return c
}

// Validate reports configuration the forwarder cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := c.Forwarding.SubjectPrefix[DefaultPrefixKey]; !ok {
		errs = append(errs, fmt.Errorf("subject_prefix must contain a %q entry", DefaultPrefixKey))
	}

	switch c.Provider {
	case "ses", "stdout":
	case "smtp":
		if c.SMTP.Addr == "" {
			errs = append(errs, errors.New("smtp provider requires smtp.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}

	switch c.Storage {
	case "s3":
		if c.Forwarding.EmailBucket == "" {
			errs = append(errs, errors.New("s3 storage requires email_bucket"))
		}
	case "dir":
		if c.StorageDir == "" {
			errs = append(errs, errors.New("dir storage requires storage_dir"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// StaticCredentials returns true if both AWS access keys are set.
func (c *Config) StaticCredentials() bool {
	return c.AWS.AccessKeyID != "" && c.AWS.SecretAccessKey != ""
}

// applyDefaults sets sensible default values for scalar fields. Maps are
// filled in by finish, because YAML decoding merges into existing maps.
func (c *Config) applyDefaults() {
	c.Forwarding.EmailBucket = DefaultForwarding().EmailBucket
	c.Provider = "ses"
	c.Storage = "s3"
	c.Logging.Level = "info"
}

// finish fills in the default rules, normalizes and validates.
func (c *Config) finish() (*Config, error) {
	if c.Forwarding.SubjectPrefix == nil && c.Forwarding.ForwardMapping == nil {
		def := DefaultForwarding()
		c.Forwarding.SubjectPrefix = def.SubjectPrefix
		c.Forwarding.ForwardMapping = def.ForwardMapping
	}
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// normalize lower-cases forward mapping keys and selector values.
func (c *Config) normalize() {
	mapping := make(map[string][]string, len(c.Forwarding.ForwardMapping))
	for k, v := range c.Forwarding.ForwardMapping {
		key := strings.ToLower(strings.TrimSpace(k))
		mapping[key] = append(mapping[key], v...)
	}
	c.Forwarding.ForwardMapping = mapping

	c.Provider = strings.ToLower(c.Provider)
	c.Storage = strings.ToLower(c.Storage)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("FROM_EMAIL"); v != "" {
		c.Forwarding.FromEmail = v
	}
	if v := os.Getenv("EMAIL_BUCKET"); v != "" {
		c.Forwarding.EmailBucket = v
	}
	if v := os.Getenv("EMAIL_KEY_PREFIX"); v != "" {
		c.Forwarding.EmailKeyPrefix = v
	}

	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("STORAGE"); v != "" {
		c.Storage = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}

	if v := os.Getenv("AWS_REGION"); v != "" {
		c.AWS.Region = v
	}
	if v := os.Getenv("FORWARDER_AWS_ACCESS_KEY_ID"); v != "" {
		c.AWS.AccessKeyID = v
	}
	if v := os.Getenv("FORWARDER_AWS_SECRET_ACCESS_KEY"); v != "" {
		c.AWS.SecretAccessKey = v
	}

	if v := os.Getenv("SMTP_RELAY_ADDR"); v != "" {
		c.SMTP.Addr = v
	}
	if v := os.Getenv("SMTP_RELAY_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_RELAY_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
