package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".dadm", cfg.DataDir)
	assert.Equal(t, "model.onnx", cfg.ModelPath)
	assert.Equal(t, "local-device", cfg.DeviceID)
	assert.Equal(t, "device-secret-placeholder", cfg.Secret)

	assert.True(t, cfg.Collectors.Process)
	assert.True(t, cfg.Collectors.Network)
	assert.True(t, cfg.Collectors.FileIntegrity)
	assert.True(t, cfg.Collectors.Privilege)
	assert.Equal(t, 5*time.Second, cfg.Collectors.ProcessInterval)
	assert.Equal(t, 60*time.Second, cfg.Collectors.FileInterval)

	assert.Equal(t, 100, cfg.Features.WindowEvents)
	assert.Equal(t, 64, cfg.Features.FeatureDim)
	assert.Equal(t, 0.8, cfg.Risk.High)
	assert.Equal(t, 0.5, cfg.Risk.Medium)

	assert.False(t, cfg.Uplink.Enabled)
	assert.Empty(t, cfg.Uplink.Endpoint)
	assert.Equal(t, 300*time.Second, cfg.Uplink.ReportInterval)

	assert.Zero(t, cfg.Daemon.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.False(t, cfg.Metrics.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := writeConfigFile(t, `
device_id: edge-7
collectors:
  process_interval: 2s
features:
  window_events: 25
risk:
  high_threshold: 0.9
uplink:
  enabled: true
  endpoint: https://aiximius.example/api
daemon:
  interval: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "edge-7", cfg.DeviceID)
	assert.Equal(t, 2*time.Second, cfg.Collectors.ProcessInterval)
	assert.Equal(t, 25, cfg.Features.WindowEvents)
	assert.Equal(t, 0.9, cfg.Risk.High)
	assert.True(t, cfg.Uplink.Enabled)
	assert.Equal(t, "https://aiximius.example/api", cfg.Uplink.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Daemon.Interval)

	// Untouched keys keep their defaults.
	assert.Equal(t, 64, cfg.Features.FeatureDim)
	assert.Equal(t, 0.5, cfg.Risk.Medium)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEA_DEVICE_ID", "laptop-42")
	t.Setenv("DEA_FEATURES__WINDOW_EVENTS", "7")
	t.Setenv("DEA_LOG__LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "laptop-42", cfg.DeviceID)
	assert.Equal(t, 7, cfg.Features.WindowEvents)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := writeConfigFile(t, "features:\n  window_events: 25\n")
	t.Setenv("DEA_FEATURES__WINDOW_EVENTS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Features.WindowEvents)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "features: [not a map")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window", func(c *Config) { c.Features.WindowEvents = 0 }},
		{"zero dimension", func(c *Config) { c.Features.FeatureDim = 0 }},
		{"threshold above one", func(c *Config) { c.Risk.High = 1.5 }},
		{"medium above high", func(c *Config) { c.Risk.Medium = 0.9; c.Risk.High = 0.8 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }},
		{"uplink enabled without endpoint", func(c *Config) { c.Uplink.Enabled = true }},
		{"negative daemon interval", func(c *Config) { c.Daemon.Interval = -time.Second }},
		{"missing secret", func(c *Config) { c.Secret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
