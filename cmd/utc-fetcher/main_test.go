package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "utc-fetcher version dev")
}

func TestLogCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ulog")
	fl, err := log.NewFileLogger(path)
	require.NoError(t, err)
	fl.Log(log.NewStateEvent("cycle-1", log.ComponentController, log.StateEntityCycle, "", "STARTED", ""))
	fl.Log(log.NewErrorEvent("cycle-1", log.ComponentBringUp, io.ErrUnexpectedEOF, "scan", false))
	require.NoError(t, fl.Close())

	out, err := execute(t, "log", "view", "--component", "bringup", path)
	require.NoError(t, err)
	assert.Contains(t, out, "BRINGUP")
	assert.NotContains(t, out, "CONTROLLER")

	out, err = execute(t, "log", "stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Events:     2")

	_, err = execute(t, "log", "view", "--category", "frames", path)
	assert.ErrorContains(t, err, "invalid category")

	out, err = execute(t, "log", "export", "--since", "1h", path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("\n")))
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	_, err := execute(t, "run", "--simulate", "--log-level", "chatty")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestLogFilterFlags(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f := logFilterFlags{cycle: "ab", component: "portal", category: "request", since: time.Minute}

	filter, err := f.filter(now)
	require.NoError(t, err)
	assert.Equal(t, "ab", filter.CycleID)
	require.NotNil(t, filter.Component)
	assert.Equal(t, log.ComponentPortal, *filter.Component)
	require.NotNil(t, filter.Category)
	assert.Equal(t, log.CategoryRequest, *filter.Category)
	require.NotNil(t, filter.TimeStart)
	assert.Equal(t, now.Add(-time.Minute), *filter.TimeStart)

	f.component = "radio"
	_, err = f.filter(now)
	assert.Error(t, err)
}

func simulatedConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.Radio.Simulate = true
	cfg.Portal.Addr = "127.0.0.1:0"
	cfg.Portal.Advertise = false
	cfg.Log.EventLog = filepath.Join(t.TempDir(), "events.ulog")
	return cfg
}

func TestNewDaemonSimulated(t *testing.T) {
	d, err := newDaemon(simulatedConfig(t), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer d.Close()

	require.NotNil(t, d.sim)
	assert.Same(t, d.sim, d.radio)
	assert.Len(t, d.sim.Networks(), len(defaultSimNetworks))
	assert.Len(t, d.closers, 1, "event log only")
}

func TestNewDaemonEventLogError(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Log.EventLog = filepath.Join(t.TempDir(), "missing", "events.ulog")

	_, err := newDaemon(cfg, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, "open event log")
}

func TestDaemonRunReturnsNilOnCancel(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Metrics.Addr = "127.0.0.1:0"
	d, err := newDaemon(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
