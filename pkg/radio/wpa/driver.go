package wpa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

// Driver defaults.
const (
	DefaultInterface   = "wlan0"
	DefaultAPInterface = "uap0"
	DefaultRunDir      = "/run/utc-fetcher"
	DefaultSysfsRoot   = "/sys/class/net"
)

// Driver errors.
var (
	ErrNotConfigured   = errors.New("no configuration applied")
	ErrAccessPointOnly = errors.New("cannot scan in access-point-only mode")
	ErrNoTarget        = errors.New("no client network configured")
)

// Config configures a Driver.
type Config struct {
	// Interface is the client (station) interface.
	Interface string

	// APInterface is the virtual interface for the setup access point.
	APInterface string

	// RunDir holds generated configuration and control sockets.
	RunDir string

	// SysfsRoot is the directory holding <iface>/operstate.
	SysfsRoot string

	// DHCPCommand obtains an address after association. The interface
	// name is appended. Empty means addresses are managed elsewhere.
	DHCPCommand []string

	Runner Runner

	// Addrs lists interface addresses. Defaults to net.InterfaceByName.
	Addrs func(iface string) ([]net.Addr, error)

	Logger *slog.Logger
}

// DefaultConfig returns the default driver configuration.
func DefaultConfig() Config {
	return Config{
		Interface:   DefaultInterface,
		APInterface: DefaultAPInterface,
		RunDir:      DefaultRunDir,
		SysfsRoot:   DefaultSysfsRoot,
		DHCPCommand: []string{"dhclient", "-nw"},
	}
}

// Driver implements wifi.Radio on Linux.
type Driver struct {
	config Config
	runner Runner
	addrs  func(iface string) ([]net.Addr, error)
	logger *slog.Logger

	mu         sync.Mutex
	current    wifi.Configuration
	supplicant Process
	hostapd    Process
	apCreated  bool
}

// New creates a driver. Zero fields in cfg take their defaults.
func New(cfg Config) *Driver {
	def := DefaultConfig()
	if cfg.Interface == "" {
		cfg.Interface = def.Interface
	}
	if cfg.APInterface == "" {
		cfg.APInterface = def.APInterface
	}
	if cfg.RunDir == "" {
		cfg.RunDir = def.RunDir
	}
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = def.SysfsRoot
	}

	d := &Driver{
		config: cfg,
		runner: cfg.Runner,
		addrs:  cfg.Addrs,
		logger: cfg.Logger,
	}
	if d.runner == nil {
		d.runner = ExecRunner{}
	}
	if d.addrs == nil {
		d.addrs = interfaceAddrs
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d
}

func interfaceAddrs(name string) ([]net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return iface.Addrs()
}

// Scan runs `iw dev <iface> scan`.
func (d *Driver) Scan(ctx context.Context) ([]wifi.AccessPointInfo, error) {
	d.mu.Lock()
	canScan := d.current.CanScan()
	d.mu.Unlock()
	if !canScan {
		return nil, ErrAccessPointOnly
	}

	out, err := d.runner.Run(ctx, "iw", "dev", d.config.Interface, "scan")
	if err != nil {
		return nil, err
	}
	return ParseScan(out), nil
}

// Apply stops running daemons and writes configuration files for cfg.
func (d *Driver) Apply(_ context.Context, cfg wifi.Configuration) error {
	if cfg.Mode() == wifi.ModeNone {
		return ErrNotConfigured
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	if cfg.Client != nil {
		data, err := RenderSupplicant(d.ctrlDir(), cfg.Client)
		if errors.Is(err, ErrPassphrase) {
			d.logger.Warn("submitted secret cannot be used for WPA, resubmit through the portal",
				"network", cfg.Client.SSID, "length", len(cfg.Client.Password), "error", err)
		}
		if err != nil {
			return err
		}
		if err := writeFileAtomic(d.path(SupplicantConf), data, 0o600); err != nil {
			return err
		}
	}
	if cfg.AccessPoint != nil {
		data, err := RenderHostapd(d.apInterface(cfg), cfg.AccessPoint)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(d.path(HostapdConf), data, 0o600); err != nil {
			return err
		}
	}

	d.current = cfg
	d.logger.Debug("wpa configuration written", "mode", cfg.Mode(), "dir", d.config.RunDir)
	return nil
}

// Start launches wpa_supplicant and, for access point modes, hostapd.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg := d.current
	if cfg.Mode() == wifi.ModeNone {
		return ErrNotConfigured
	}

	if cfg.Mode() == wifi.ModeMixed && !d.apCreated {
		_, err := d.runner.Run(ctx, "iw", "dev", d.config.Interface,
			"interface", "add", d.config.APInterface, "type", "__ap")
		if err != nil {
			return fmt.Errorf("create %s: %w", d.config.APInterface, err)
		}
		d.apCreated = true
	}

	if cfg.Client != nil {
		p, err := d.runner.Start("wpa_supplicant", "-i", d.config.Interface,
			"-c", d.path(SupplicantConf), "-D", "nl80211")
		if err != nil {
			return err
		}
		d.supplicant = p
	}
	if cfg.AccessPoint != nil {
		p, err := d.runner.Start("hostapd", d.path(HostapdConf))
		if err != nil {
			d.stopLocked()
			return err
		}
		d.hostapd = p
	}
	return nil
}

// Connect asks wpa_supplicant to associate and starts the DHCP client.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.current.HasTarget() {
		return ErrNoTarget
	}

	if _, err := d.runner.Run(ctx, "wpa_cli", "-p", d.ctrlDir(), "-i", d.config.Interface, "reconnect"); err != nil {
		return err
	}
	if len(d.config.DHCPCommand) > 0 {
		args := append(append([]string(nil), d.config.DHCPCommand[1:]...), d.config.Interface)
		if _, err := d.runner.Run(ctx, d.config.DHCPCommand[0], args...); err != nil {
			return fmt.Errorf("dhcp: %w", err)
		}
	}
	return nil
}

// IsStarted reports whether the daemons run and the interface is not down.
func (d *Driver) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg := d.current
	if cfg.Client != nil {
		if d.supplicant == nil || !d.supplicant.Running() {
			return false
		}
		if !up(d.operstate(d.config.Interface), true) {
			return false
		}
	}
	if cfg.AccessPoint != nil {
		if d.hostapd == nil || !d.hostapd.Running() {
			return false
		}
		if !up(d.operstate(d.apInterface(cfg)), false) {
			return false
		}
	}
	return cfg.Mode() != wifi.ModeNone
}

// IsConnected reports whether the client interface carries a link.
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current.Client == nil {
		return false
	}
	return d.operstate(d.config.Interface) == "up"
}

// IPAssigned reports whether the client interface has a routable address.
func (d *Driver) IPAssigned() bool {
	addrs, err := d.addrs(d.config.Interface)
	if err != nil {
		return false
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsUnspecified() || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		return true
	}
	return false
}

// Close stops the daemons and removes the virtual access point interface.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	if d.apCreated {
		d.apCreated = false
		_, err := d.runner.Run(context.Background(), "iw", "dev", d.config.APInterface, "del")
		return err
	}
	return nil
}

func (d *Driver) stopLocked() {
	if d.supplicant != nil {
		_ = d.supplicant.Stop()
		d.supplicant = nil
	}
	if d.hostapd != nil {
		_ = d.hostapd.Stop()
		d.hostapd = nil
	}
}

func (d *Driver) apInterface(cfg wifi.Configuration) string {
	if cfg.Mode() == wifi.ModeMixed {
		return d.config.APInterface
	}
	return d.config.Interface
}

func (d *Driver) operstate(iface string) string {
	b, err := os.ReadFile(filepath.Join(d.config.SysfsRoot, iface, "operstate"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// up reports whether operstate means the interface is administratively up.
// A station without a link reports "dormant".
func up(state string, station bool) bool {
	switch state {
	case "up", "unknown":
		return true
	case "dormant":
		return station
	default:
		return false
	}
}

func (d *Driver) ctrlDir() string {
	return filepath.Join(d.config.RunDir, "wpa_supplicant")
}

func (d *Driver) path(name string) string {
	return filepath.Join(d.config.RunDir, name)
}

var _ wifi.Radio = (*Driver)(nil)
