package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ovnanova/aeon/pkg/identity"
)

// DecommissionSentinel is the reserved trigger value meaning "remove all
// active labels". It doubles as the record key of the labeler's
// self-description post.
const DecommissionSentinel = "self"

// Config holds all process configuration. It is constructed once at
// startup and injected into component constructors; there is no ambient
// global configuration state.
type Config struct {
	// ServiceDID is the labeler's own identifier
	ServiceDID string `yaml:"service_did"`

	// SigningKey is the label signing key material (hex or base64url)
	SigningKey string `yaml:"signing_key"`

	// FeedURL is the upstream commit event feed endpoint
	FeedURL string `yaml:"feed_url"`

	// Collection is the record collection whose commits drive labeling
	Collection string `yaml:"collection"`

	// CursorSaveInterval is how often the feed position is persisted
	CursorSaveInterval Duration `yaml:"cursor_save_interval"`

	// AccountHandle and AccountPassword are the service account
	// credentials; required together or not at all
	AccountHandle   string `yaml:"account_handle"`
	AccountPassword string `yaml:"account_password"`

	// ListenAddr is the ops HTTP listen address
	ListenAddr string `yaml:"listen_addr"`

	// DecommissionKey is the sentinel trigger record key
	DecommissionKey string `yaml:"decommission_key"`

	// DataDir holds the cursor, counter and label databases
	DataDir string `yaml:"data_dir"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// Default returns a config with defaults for everything except identity
// and credentials.
func Default() *Config {
	return &Config{
		FeedURL:            "wss://jetstream.atproto.tools/subscribe",
		Collection:         "app.bsky.feed.like",
		CursorSaveInterval: Duration(30 * time.Second),
		ListenAddr:         "127.0.0.1:8100",
		DecommissionKey:    DecommissionSentinel,
		DataDir:            "./aeon-data",
		LogLevel:           "info",
		LogJSON:            true,
	}
}

// Load reads and validates a config file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config file with owner-only permissions: it holds the
// signing key and account credentials.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks every key independently and reports the first failure
func (c *Config) Validate() error {
	if err := identity.ValidateDID(c.ServiceDID); err != nil {
		return fmt.Errorf("service_did: %w", err)
	}
	if err := identity.ValidateSigningKey(c.SigningKey); err != nil {
		return fmt.Errorf("signing_key: %w", err)
	}
	if err := validateFeedURL(c.FeedURL); err != nil {
		return fmt.Errorf("feed_url: %w", err)
	}
	if err := validateCollection(c.Collection); err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	if time.Duration(c.CursorSaveInterval) < time.Second {
		return fmt.Errorf("cursor_save_interval: must be at least 1s, got %s", c.CursorSaveInterval)
	}
	if (c.AccountHandle == "") != (c.AccountPassword == "") {
		return errors.New("account_handle and account_password must be set together")
	}
	if err := validateListenAddr(c.ListenAddr); err != nil {
		return fmt.Errorf("listen_addr: %w", err)
	}
	if c.DecommissionKey != DecommissionSentinel {
		if err := identity.ValidateRecordKey(c.DecommissionKey); err != nil {
			return fmt.Errorf("decommission_key: %w", err)
		}
	}
	if c.DataDir == "" {
		return errors.New("data_dir: must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	return nil
}

func validateFeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("scheme must be ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func validateCollection(s string) error {
	// NSID shape: at least three dot-separated lowercase segments
	parts := strings.Split(s, ".")
	if len(parts) < 3 {
		return fmt.Errorf("collection %q is not a valid NSID", s)
	}
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("collection %q has an empty segment", s)
		}
		for i := 0; i < len(part); i++ {
			c := part[i]
			if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '-' {
				return fmt.Errorf("collection %q has an invalid character %q", s, c)
			}
		}
	}
	return nil
}

func validateListenAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	_ = host
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

// Get returns the string form of a single key for the config CLI
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "service_did":
		return c.ServiceDID, nil
	case "signing_key":
		return c.SigningKey, nil
	case "feed_url":
		return c.FeedURL, nil
	case "collection":
		return c.Collection, nil
	case "cursor_save_interval":
		return c.CursorSaveInterval.String(), nil
	case "account_handle":
		return c.AccountHandle, nil
	case "account_password":
		return c.AccountPassword, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "decommission_key":
		return c.DecommissionKey, nil
	case "data_dir":
		return c.DataDir, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_json":
		return strconv.FormatBool(c.LogJSON), nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set updates a single key from its string form, then re-validates the
// whole config. Unknown keys are rejected.
func (c *Config) Set(key, value string) error {
	switch key {
	case "service_did":
		c.ServiceDID = value
	case "signing_key":
		c.SigningKey = value
	case "feed_url":
		c.FeedURL = value
	case "collection":
		c.Collection = value
	case "cursor_save_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("cursor_save_interval: %w", err)
		}
		c.CursorSaveInterval = Duration(d)
	case "account_handle":
		c.AccountHandle = value
	case "account_password":
		c.AccountPassword = value
	case "listen_addr":
		c.ListenAddr = value
	case "decommission_key":
		c.DecommissionKey = value
	case "data_dir":
		c.DataDir = value
	case "log_level":
		c.LogLevel = value
	case "log_json":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("log_json: %w", err)
		}
		c.LogJSON = b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}

// Redacted returns a copy safe for display: credentials and key material
// are masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.SigningKey != "" {
		out.SigningKey = "<redacted>"
	}
	if out.AccountPassword != "" {
		out.AccountPassword = "<redacted>"
	}
	return &out
}
