package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDID = "did:plc:zzzzzzzzzzzzzzzzzzzzzzzz"
	testKey = "abababababababababababababababababababababababababababababababab"
)

func validConfig() *Config {
	cfg := Default()
	cfg.ServiceDID = testDID
	cfg.SigningKey = testKey
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults plus identity",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing service DID",
			mutate:  func(c *Config) { c.ServiceDID = "" },
			wantErr: "service_did",
		},
		{
			name:    "malformed signing key",
			mutate:  func(c *Config) { c.SigningKey = "short" },
			wantErr: "signing_key",
		},
		{
			name:    "http feed url rejected",
			mutate:  func(c *Config) { c.FeedURL = "https://example.com/subscribe" },
			wantErr: "feed_url",
		},
		{
			name:    "bad collection",
			mutate:  func(c *Config) { c.Collection = "likes" },
			wantErr: "collection",
		},
		{
			name:    "interval too small",
			mutate:  func(c *Config) { c.CursorSaveInterval = Duration(100 * time.Millisecond) },
			wantErr: "cursor_save_interval",
		},
		{
			name:    "handle without password",
			mutate:  func(c *Config) { c.AccountHandle = "labeler.example.com" },
			wantErr: "account",
		},
		{
			name:    "bad listen addr",
			mutate:  func(c *Config) { c.ListenAddr = "9000" },
			wantErr: "listen_addr",
		},
		{
			name:    "bad decommission key",
			mutate:  func(c *Config) { c.DecommissionKey = "not valid" },
			wantErr: "decommission_key",
		},
		{
			name:   "decommission key may be a record key",
			mutate: func(c *Config) { c.DecommissionKey = "3l7jy3e7hhp2f" },
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: "data_dir",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"service_did: " + testDID,
		"signing_key: " + testKey,
		"mystery_key: true",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery_key")
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"service_did: " + testDID,
		"signing_key: " + testKey,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DecommissionSentinel, cfg.DecommissionKey)
	assert.Equal(t, "app.bsky.feed.like", cfg.Collection)
	assert.Equal(t, Duration(30*time.Second), cfg.CursorSaveInterval)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := validConfig()
	cfg.ListenAddr = "0.0.0.0:9100"
	require.NoError(t, cfg.Save(path))

	// Credentials on disk stay owner-only
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetSet(t *testing.T) {
	cfg := validConfig()

	require.NoError(t, cfg.Set("cursor_save_interval", "1m"))
	assert.Equal(t, Duration(time.Minute), cfg.CursorSaveInterval)

	got, err := cfg.Get("cursor_save_interval")
	require.NoError(t, err)
	assert.Equal(t, "1m0s", got)

	// Set re-validates: a bad value is rejected
	err = cfg.Set("log_level", "verbose")
	assert.Error(t, err)

	// Unknown keys rejected on both paths
	_, err = cfg.Get("nope")
	assert.Error(t, err)
	err = cfg.Set("nope", "1")
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	cfg := validConfig()
	cfg.AccountHandle = "labeler.example.com"
	cfg.AccountPassword = "hunter2"

	red := cfg.Redacted()
	assert.Equal(t, "<redacted>", red.SigningKey)
	assert.Equal(t, "<redacted>", red.AccountPassword)

	// Original untouched
	assert.Equal(t, testKey, cfg.SigningKey)
	assert.Equal(t, "hunter2", cfg.AccountPassword)
}
