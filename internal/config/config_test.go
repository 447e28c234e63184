package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIngestConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *IngestConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_STREAM"
  max_reconnects: 5
  reconnect_wait: "5s"
  connection_name: "test-connection"
feed:
  url: "wss://feed.example.com/v0/stream"
  api_key: "test-key"
  idle_timeout: "60s"
session:
  duration: "5m"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *IngestConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "testuser", cfg.Database.User)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "TEST_STREAM", cfg.NATS.StreamName)
				assert.Equal(t, 5, cfg.NATS.MaxReconnects)
				assert.Equal(t, "wss://feed.example.com/v0/stream", cfg.Feed.URL)
				assert.Equal(t, "test-key", cfg.Feed.APIKey)
				assert.Equal(t, 60*time.Second, cfg.Feed.IdleTimeout)
				assert.Equal(t, 5*time.Minute, cfg.Session.Duration)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
nats:
  url: "nats://localhost:4222"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *IngestConfig) {
				// Check defaults
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.NATS.MaxReconnects)
				assert.Equal(t, "2s", cfg.NATS.ReconnectWait.String())
				assert.Equal(t, "POSITION_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, "wss://stream.aisstream.io/v0/stream", cfg.Feed.URL)
				assert.Equal(t, 90*time.Second, cfg.Feed.IdleTimeout)
				assert.Equal(t, 10*time.Minute, cfg.Session.Duration)
				// API key is optional here; its absence is checked at session start
				assert.Empty(t, cfg.Feed.APIKey)
			},
		},
		{
			name: "missing database host fails validation",
			configFile: `
database:
  user: testuser
  dbname: testdb
nats:
  url: "nats://localhost:4222"
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "missing nats url fails validation",
			configFile: `
database:
  host: localhost
  user: testuser
  dbname: testdb
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "invalid yaml",
			configFile: `
database:
  host: localhost
  port: invalid
`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
			require.NoError(t, err)

			cfg, err := LoadIngestConfig(configFile, tmpDir)
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadLiveViewConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *LiveViewConfig)
	}{
		{
			name: "valid config file",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
nats:
  url: "nats://localhost:4222"
  consumer_name: "live-view"
  ack_wait: "20s"
  max_deliver: 5
projector:
  window: "2h"
  reload_interval: "10s"
  freshness_threshold: "15m"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *LiveViewConfig) {
				assert.Equal(t, "live-view", cfg.NATS.ConsumerName)
				assert.Equal(t, 20*time.Second, cfg.NATS.AckWait)
				assert.Equal(t, 5, cfg.NATS.MaxDeliver)
				assert.Equal(t, 2*time.Hour, cfg.Projector.Window)
				assert.Equal(t, 10*time.Second, cfg.Projector.ReloadInterval)
				assert.Equal(t, 15*time.Minute, cfg.Projector.FreshnessThreshold)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  dbname: testdb
nats:
  url: "nats://localhost:4222"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *LiveViewConfig) {
				// Check defaults
				assert.Equal(t, "POSITION_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, 30*time.Second, cfg.NATS.AckWait)
				assert.Equal(t, 3, cfg.NATS.MaxDeliver)
				assert.Equal(t, 6*time.Hour, cfg.Projector.Window)
				assert.Equal(t, 30*time.Second, cfg.Projector.ReloadInterval)
				assert.Equal(t, 30*time.Minute, cfg.Projector.FreshnessThreshold)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
			require.NoError(t, err)

			cfg, err := LoadLiveViewConfig(configFile, tmpDir)
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "argo",
		Password: "secret",
		DBName:   "positions",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.example.com port=5433 user=argo password=secret dbname=positions sslmode=require",
		cfg.DSN())
}
