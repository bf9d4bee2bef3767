package interactive

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utc-fetcher/utc-fetcher-go/internal/fakeclock"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/bringup"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/provision"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/radio/sim"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

type fixedStage bringup.Stage

func (s fixedStage) Stage() bringup.Stage { return bringup.Stage(s) }

type fixedStats provision.Stats

func (s fixedStats) Stats() provision.Stats { return provision.Stats(s) }

type fixedNetworks []string

func (n fixedNetworks) Networks() []string { return n }

func newTarget() Target {
	radio := sim.New(sim.Config{
		Networks: []wifi.AccessPointInfo{{SSID: "Cafe", Signal: -50, Auth: wifi.AuthOpen}},
		Known:    map[string]string{"Cafe": ""},
		Clock:    fakeclock.New(),
	})
	return Target{
		Radio:      radio,
		Machine:    fixedStage(bringup.StageSetupAccessPoint),
		Controller: fixedStats{Attempted: 2, Failed: 1, LastCycleID: "abc", LastError: "timed out"},
		Portal:     fixedNetworks{"Cafe"},
	}
}

func run(t *testing.T, target Target, line string) (string, bool) {
	t.Helper()
	var buf bytes.Buffer
	quit := Execute(context.Background(), target, &buf, line)
	return buf.String(), quit
}

func TestStatus(t *testing.T) {
	target := newTarget()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	target.LastTime = func() (time.Time, bool) { return at, true }

	out, quit := run(t, target, "status")

	assert.False(t, quit)
	assert.Contains(t, out, "Stage:   SETUP_ACCESS_POINT")
	assert.Contains(t, out, "2 attempted, 1 failed")
	assert.Contains(t, out, "Error:   timed out")
	assert.Contains(t, out, "Portal:  Cafe")
	assert.Contains(t, out, "2026-05-01T12:00:00Z")
}

func TestAddAndRemoveNetwork(t *testing.T) {
	target := newTarget()

	out, _ := run(t, target, "add Home secret123 -70")
	assert.Contains(t, out, `Added "Home" (WPA2-PSK)`)

	aps := target.Radio.Networks()
	require.Len(t, aps, 2)
	assert.Equal(t, "Home", aps[1].SSID)
	assert.Equal(t, int8(-70), aps[1].Signal)

	// Replacing keeps one entry.
	run(t, target, "add Home")
	aps = target.Radio.Networks()
	require.Len(t, aps, 2)
	assert.Equal(t, wifi.AuthOpen, aps[1].Auth)

	out, _ = run(t, target, "rm Home")
	assert.Contains(t, out, `Removed "Home"`)
	assert.Len(t, target.Radio.Networks(), 1)

	out, _ = run(t, target, "rm Nowhere")
	assert.Contains(t, out, `No network "Nowhere"`)
}

func TestAddRejectsBadSignal(t *testing.T) {
	target := newTarget()

	out, _ := run(t, target, "add Home pw loud")

	assert.Contains(t, out, "Invalid signal")
	assert.Len(t, target.Radio.Networks(), 1)
}

func TestFailInjectsError(t *testing.T) {
	target := newTarget()
	require.NoError(t, target.Radio.Apply(context.Background(), wifi.Configuration{Client: &wifi.ClientConfig{}}))

	out, _ := run(t, target, "fail scan radio jammed")
	assert.Contains(t, out, "Next scan will fail: radio jammed")

	out, _ = run(t, target, "scan")
	assert.Contains(t, out, "Scan failed: ")
	assert.Contains(t, out, "radio jammed")

	out, _ = run(t, target, "scan")
	assert.Contains(t, out, `"Cafe"`)
}

func TestFailUnknownOp(t *testing.T) {
	out, _ := run(t, newTarget(), "fail reboot")
	assert.Contains(t, out, "invalid operation: reboot")
}

func TestScanBeforeConfigured(t *testing.T) {
	out, _ := run(t, newTarget(), "scan")
	assert.Contains(t, out, "Scan failed")
}

func TestQuitAndUnknown(t *testing.T) {
	target := newTarget()

	_, quit := run(t, target, "  QUIT ")
	assert.True(t, quit)

	out, quit := run(t, target, "dance")
	assert.False(t, quit)
	assert.Contains(t, out, "Unknown command: dance")

	out, quit = run(t, target, "   ")
	assert.False(t, quit)
	assert.Empty(t, out)
}
