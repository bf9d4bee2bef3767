package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utc-fetcher/utc-fetcher-go/internal/fakeclock"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

var ctx = context.Background()

func clientFor(ssid, password string) wifi.Configuration {
	return wifi.Configuration{Client: &wifi.ClientConfig{SSID: ssid, Password: password}}
}

func TestStartLatency(t *testing.T) {
	clock := fakeclock.New()
	r := New(Config{StartLatency: time.Second, Clock: clock})

	require.NoError(t, r.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}}))
	require.NoError(t, r.Start(ctx))
	assert.False(t, r.IsStarted())

	clock.Advance(999 * time.Millisecond)
	assert.False(t, r.IsStarted())

	clock.Advance(time.Millisecond)
	assert.True(t, r.IsStarted())
}

func TestApplyStopsInterface(t *testing.T) {
	r := New(Config{Clock: fakeclock.New()})

	require.NoError(t, r.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}}))
	require.NoError(t, r.Start(ctx))
	require.True(t, r.IsStarted())

	require.NoError(t, r.Apply(ctx, clientFor("Home", "pw")))
	assert.False(t, r.IsStarted())
	assert.Len(t, r.Applied(), 2)
}

func TestNeverStarts(t *testing.T) {
	clock := fakeclock.New()
	r := New(Config{StartLatency: Never, Clock: clock})

	require.NoError(t, r.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}}))
	require.NoError(t, r.Start(ctx))
	clock.Advance(24 * time.Hour)
	assert.False(t, r.IsStarted())
}

func TestScanRequiresClientCapability(t *testing.T) {
	aps := []wifi.AccessPointInfo{{SSID: "Cafe"}, {SSID: "Home"}}
	r := New(Config{Networks: aps, Clock: fakeclock.New()})

	require.NoError(t, r.Apply(ctx, wifi.Configuration{
		AccessPoint: &wifi.AccessPointConfig{SSID: "Setup"},
	}))
	_, err := r.Scan(ctx)
	assert.ErrorIs(t, err, ErrAccessPointOnly)

	require.NoError(t, r.Apply(ctx, wifi.Configuration{
		Client:      &wifi.ClientConfig{},
		AccessPoint: &wifi.AccessPointConfig{SSID: "Setup"},
	}))
	got, err := r.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, aps, got)
	assert.Equal(t, 1, r.Scans())
}

func TestScanLatencyUsesClock(t *testing.T) {
	clock := fakeclock.New()
	r := New(Config{ScanLatency: 3 * time.Second, Clock: clock})
	require.NoError(t, r.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}}))

	begin := clock.Now()
	_, err := r.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, clock.Since(begin))
}

func TestConnectKnownNetwork(t *testing.T) {
	clock := fakeclock.New()
	r := New(Config{
		Known:          map[string]string{"Home": "abc123"},
		ConnectLatency: 2 * time.Second,
		AddressLatency: time.Second,
		Clock:          clock,
	})

	require.NoError(t, r.Apply(ctx, clientFor("Home", "abc123")))
	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Connect(ctx))

	assert.False(t, r.IsConnected())
	clock.Advance(2 * time.Second)
	assert.True(t, r.IsConnected())
	assert.False(t, r.IPAssigned())
	clock.Advance(time.Second)
	assert.True(t, r.IPAssigned())
}

func TestConnectWrongPassword(t *testing.T) {
	clock := fakeclock.New()
	r := New(Config{Known: map[string]string{"Home": "abc123"}, Clock: clock})

	require.NoError(t, r.Apply(ctx, clientFor("Home", "wrong")))
	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Connect(ctx))

	clock.Advance(time.Minute)
	assert.False(t, r.IsConnected())
	assert.False(t, r.IPAssigned())
}

func TestConnectPreconditions(t *testing.T) {
	r := New(Config{Clock: fakeclock.New()})

	require.NoError(t, r.Apply(ctx, clientFor("Home", "")))
	assert.ErrorIs(t, r.Connect(ctx), ErrNotStarted)

	require.NoError(t, r.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}}))
	require.NoError(t, r.Start(ctx))
	assert.ErrorIs(t, r.Connect(ctx), ErrNoTarget)

	assert.ErrorIs(t, r.Apply(ctx, wifi.Configuration{}), ErrNotConfigured)
}

func TestFailNext(t *testing.T) {
	r := New(Config{Clock: fakeclock.New()})
	boom := errors.New("boom")
	r.FailNext(OpApply, boom)

	err := r.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "apply")

	// Only the next call fails.
	assert.NoError(t, r.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}}))
}

func TestNetworksReturnsCopy(t *testing.T) {
	r := New(Config{Clock: fakeclock.New()})
	r.SetNetworks([]wifi.AccessPointInfo{{SSID: "Cafe"}})

	got := r.Networks()
	require.Len(t, got, 1)
	got[0].SSID = "changed"

	assert.Equal(t, "Cafe", r.Networks()[0].SSID)
}
