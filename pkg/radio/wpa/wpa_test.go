package wpa

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

const iwOutput = `BSS 11:22:33:44:55:66(on wlan0)
	freq: 2437
	capability: ESS Privacy ShortSlotTime (0x0411)
	signal: -71.00 dBm
	SSID: Cafe
	DS Parameter set: channel 6
	RSN:	 * Version: 1
		 * Group cipher: CCMP
		 * Pairwise ciphers: CCMP
		 * Authentication suites: PSK
BSS aa:bb:cc:dd:ee:ff(on wlan0) -- associated
	capability: ESS Privacy (0x0011)
	signal: -40.00 dBm
	SSID: Home
	DS Parameter set: channel 11
	RSN:	 * Version: 1
		 * Authentication suites: SAE
BSS 00:00:00:00:00:01(on wlan0)
	capability: ESS (0x0001)
	signal: -80.00 dBm
	SSID: Guest
	DS Parameter set: channel 1
BSS 00:00:00:00:00:02(on wlan0)
	capability: ESS Privacy (0x0011)
	signal: -60.00 dBm
	SSID: Office
	RSN:	 * Version: 1
		 * Authentication suites: IEEE 802.1X
`

func TestParseScan(t *testing.T) {
	aps := ParseScan([]byte(iwOutput))
	require.Len(t, aps, 4)

	// Strongest first.
	assert.Equal(t, "Home", aps[0].SSID)
	assert.Equal(t, int8(-40), aps[0].Signal)
	assert.Equal(t, uint8(11), aps[0].Channel)
	assert.Equal(t, wifi.AuthWPA3Personal, aps[0].Auth)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", aps[0].BSSID)

	assert.Equal(t, "Office", aps[1].SSID)
	assert.Equal(t, wifi.AuthWPA2Enterprise, aps[1].Auth)

	assert.Equal(t, "Cafe", aps[2].SSID)
	assert.Equal(t, wifi.AuthWPA2Personal, aps[2].Auth)

	assert.Equal(t, "Guest", aps[3].SSID)
	assert.Equal(t, wifi.AuthOpen, aps[3].Auth)
}

func TestRenderSupplicant(t *testing.T) {
	t.Run("WPA", func(t *testing.T) {
		data, err := RenderSupplicant("/run/x", &wifi.ClientConfig{
			SSID:     "IEEE",
			Password: "password",
			Auth:     wifi.AuthWPA2Personal,
		})
		require.NoError(t, err)
		conf := string(data)

		assert.Contains(t, conf, "ctrl_interface=/run/x\n")
		assert.Contains(t, conf, "ssid="+hex.EncodeToString([]byte("IEEE"))+"\n")
		assert.Contains(t, conf, "key_mgmt=WPA-PSK\n")
		assert.Contains(t, conf, "psk=f42c6fc52df0ebef9ebb4b90b38a5f902e83fe1b135a70e23aed762e9710a12e\n")
		assert.NotContains(t, conf, "password")
	})

	t.Run("Open", func(t *testing.T) {
		data, err := RenderSupplicant("/run/x", &wifi.ClientConfig{SSID: "Guest"})
		require.NoError(t, err)
		assert.Contains(t, string(data), "key_mgmt=NONE\n")
	})

	t.Run("ScanOnly", func(t *testing.T) {
		data, err := RenderSupplicant("/run/x", &wifi.ClientConfig{})
		require.NoError(t, err)
		assert.NotContains(t, string(data), "network={")
	})

	t.Run("ShortPassphrase", func(t *testing.T) {
		_, err := RenderSupplicant("/run/x", &wifi.ClientConfig{SSID: "Home", Password: "short"})
		assert.ErrorIs(t, err, ErrPassphrase)
	})

	t.Run("RawPSK", func(t *testing.T) {
		raw := strings.Repeat("AB", 32)
		data, err := RenderSupplicant("/run/x", &wifi.ClientConfig{SSID: "Home", Password: raw})
		require.NoError(t, err)
		assert.Contains(t, string(data), "psk="+strings.Repeat("ab", 32)+"\n")
	})

	t.Run("SixtyFourNonHex", func(t *testing.T) {
		_, err := RenderSupplicant("/run/x", &wifi.ClientConfig{SSID: "Home", Password: strings.Repeat("z", 64)})
		assert.ErrorIs(t, err, ErrPassphrase)
	})
}

func TestRenderHostapd(t *testing.T) {
	data, err := RenderHostapd("uap0", &wifi.AccessPointConfig{SSID: "UTC-Fetcher-Setup", Auth: wifi.AuthOpen})
	require.NoError(t, err)
	conf := string(data)

	assert.Contains(t, conf, "interface=uap0\n")
	assert.Contains(t, conf, "ssid2="+hex.EncodeToString([]byte("UTC-Fetcher-Setup"))+"\n")
	assert.Contains(t, conf, "channel=6\n")
	assert.NotContains(t, conf, "wpa=")
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "conf")

	require.NoError(t, writeFileAtomic(path, []byte("one"), 0o600))
	require.NoError(t, writeFileAtomic(path, []byte("two"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")
}

type fakeProcess struct {
	mu      sync.Mutex
	stopped bool
}

func (p *fakeProcess) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	return nil
}

func (p *fakeProcess) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.stopped
}

type fakeRunner struct {
	mu       sync.Mutex
	commands []string
	started  []*fakeProcess
	output   map[string][]byte
	fail     map[string]error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd := strings.Join(append([]string{name}, args...), " ")
	r.commands = append(r.commands, cmd)
	if err := r.fail[name]; err != nil {
		return nil, err
	}
	return r.output[cmd], nil
}

func (r *fakeRunner) Start(name string, args ...string) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, strings.Join(append([]string{name}, args...), " "))
	if err := r.fail[name]; err != nil {
		return nil, err
	}
	p := &fakeProcess{}
	r.started = append(r.started, p)
	return p, nil
}

func (r *fakeRunner) ran(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.commands {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

type testEnv struct {
	driver *Driver
	runner *fakeRunner
	sysfs  string
	run    string
	addrs  []net.Addr
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		runner: &fakeRunner{output: map[string][]byte{}, fail: map[string]error{}},
		sysfs:  t.TempDir(),
		run:    t.TempDir(),
	}
	env.driver = New(Config{
		RunDir:      env.run,
		SysfsRoot:   env.sysfs,
		DHCPCommand: []string{"udhcpc", "-i"},
		Runner:      env.runner,
		Addrs:       func(string) ([]net.Addr, error) { return env.addrs, nil },
	})
	return env
}

func (e *testEnv) setOperstate(t *testing.T, iface, state string) {
	t.Helper()
	dir := filepath.Join(e.sysfs, iface)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "operstate"), []byte(state+"\n"), 0o644))
}

func TestDriverClientLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.driver

	cfg := wifi.Configuration{Client: &wifi.ClientConfig{SSID: "Home", Password: "abc12345", Auth: wifi.AuthWPA2Personal}}
	require.NoError(t, d.Apply(ctx, cfg))
	assert.FileExists(t, filepath.Join(env.run, SupplicantConf))
	assert.NoFileExists(t, filepath.Join(env.run, HostapdConf))

	require.NoError(t, d.Start(ctx))
	assert.True(t, env.runner.ran("wpa_supplicant -i wlan0"))

	assert.False(t, d.IsStarted(), "no operstate yet")
	env.setOperstate(t, "wlan0", "dormant")
	assert.True(t, d.IsStarted())
	assert.False(t, d.IsConnected())

	require.NoError(t, d.Connect(ctx))
	assert.True(t, env.runner.ran("wpa_cli"))
	assert.True(t, env.runner.ran("udhcpc -i wlan0"))

	env.setOperstate(t, "wlan0", "up")
	assert.True(t, d.IsConnected())

	assert.False(t, d.IPAssigned())
	env.addrs = []net.Addr{&net.IPNet{IP: net.ParseIP("fe80::1")}, &net.IPNet{IP: net.IPv4zero}}
	assert.False(t, d.IPAssigned())
	env.addrs = append(env.addrs, &net.IPNet{IP: net.ParseIP("192.168.1.23")})
	assert.True(t, d.IPAssigned())
}

func TestDriverMixedMode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.driver

	cfg := wifi.Configuration{
		Client:      &wifi.ClientConfig{},
		AccessPoint: &wifi.AccessPointConfig{SSID: "UTC-Fetcher-Setup", Auth: wifi.AuthOpen},
	}
	require.NoError(t, d.Apply(ctx, cfg))
	require.NoError(t, d.Start(ctx))

	assert.True(t, env.runner.ran("iw dev wlan0 interface add uap0 type __ap"))
	assert.True(t, env.runner.ran("hostapd "))

	env.setOperstate(t, "wlan0", "dormant")
	assert.False(t, d.IsStarted(), "access point interface not up")
	env.setOperstate(t, "uap0", "up")
	assert.True(t, d.IsStarted())

	assert.ErrorIs(t, d.Connect(ctx), ErrNoTarget)

	// Re-applying stops the daemons.
	require.NoError(t, d.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}}))
	for _, p := range env.runner.started {
		assert.False(t, p.Running())
	}

	require.NoError(t, d.Close())
	assert.True(t, env.runner.ran("iw dev uap0 del"))
}

func TestDriverScan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.driver
	env.runner.output["iw dev wlan0 scan"] = []byte(iwOutput)

	require.NoError(t, d.Apply(ctx, wifi.Configuration{AccessPoint: &wifi.AccessPointConfig{SSID: "Setup"}}))
	_, err := d.Scan(ctx)
	assert.ErrorIs(t, err, ErrAccessPointOnly)

	require.NoError(t, d.Apply(ctx, wifi.Configuration{Client: &wifi.ClientConfig{}}))
	aps, err := d.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, aps, 4)

	env.runner.fail["iw"] = errors.New("device busy")
	_, err = d.Scan(ctx)
	assert.Error(t, err)
}

func TestDriverApplyRejectsEmpty(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.driver.Apply(context.Background(), wifi.Configuration{}), ErrNotConfigured)
	assert.ErrorIs(t, env.driver.Start(context.Background()), ErrNotConfigured)
}

func TestDriverApplyWarnsOnUnusableSecret(t *testing.T) {
	env := newTestEnv(t)
	var logs strings.Builder
	env.driver.logger = slog.New(slog.NewTextHandler(&logs, nil))

	cfg := wifi.Configuration{Client: &wifi.ClientConfig{SSID: "Home", Password: "qwer", Auth: wifi.AuthWPA2Personal}}
	err := env.driver.Apply(context.Background(), cfg)

	assert.ErrorIs(t, err, ErrPassphrase)
	assert.Contains(t, logs.String(), "resubmit through the portal")
	assert.Contains(t, logs.String(), "network=Home")
	assert.NotContains(t, logs.String(), "qwer")
}
