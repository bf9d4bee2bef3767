package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20*time.Second, cfg.BringUp.StartTimeout)
	assert.Equal(t, 20*time.Second, cfg.BringUp.ConnectTimeout)
	assert.Equal(t, ":80", cfg.Portal.Addr)
	assert.Equal(t, time.Duration(0), cfg.Portal.RescanInterval)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
radio:
  simulate: true
portal:
  addr: ":8080"
  setup_ssid: "Clock-Setup"
  rescan_interval: 10s
bringup:
  connect_timeout: 45s
  max_cycles: 3
log:
  level: debug
  event_log: /tmp/events.ulog
simulator:
  networks:
    - ssid: Home
      password: hunter22
      signal: -55
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Radio.Simulate)
	assert.Equal(t, ":8080", cfg.Portal.Addr)
	assert.Equal(t, "Clock-Setup", cfg.Portal.SetupSSID)
	assert.Equal(t, 10*time.Second, cfg.Portal.RescanInterval)
	assert.Equal(t, 45*time.Second, cfg.BringUp.ConnectTimeout)
	assert.Equal(t, 20*time.Second, cfg.BringUp.StartTimeout, "unset fields keep defaults")
	assert.Equal(t, 3, cfg.BringUp.MaxCycles)
	assert.Equal(t, "/tmp/events.ulog", cfg.Log.EventLog)
	require.Len(t, cfg.Simulator.Networks, 1)
	assert.Equal(t, int8(-55), cfg.Simulator.Networks[0].Signal)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", "portal:\n  adress: x\n", "adress"},
		{"bad duration", "bringup:\n  start_timeout: soon\n", "parse config"},
		{"zero timeout", "bringup:\n  start_timeout: 0s\n", "bringup.start_timeout"},
		{"long ssid", "portal:\n  setup_ssid: abcdefghijklmnopqrstuvwxyz0123456789\n", "portal.setup_ssid"},
		{"bad level", "log:\n  level: loud\n", "unknown log level"},
		{"sim network without ssid", "simulator:\n  networks:\n    - password: x\n", "simulator.networks[0].ssid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Portal.Addr = ""
	cfg.Time.Interval = 0
	cfg.Radio.Interface = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portal.addr")
	assert.Contains(t, err.Error(), "time.interval")
	assert.Contains(t, err.Error(), "radio.interface")

	cfg.Radio.Simulate = true
	err = cfg.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "radio.interface")
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"error", "WARNING", "warn", "Info", "", "debug"} {
		_, err := parseLevel(s)
		assert.NoError(t, err, s)
	}
	_, err := parseLevel("trace")
	assert.Error(t, err)
}
