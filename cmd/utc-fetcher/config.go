package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/bringup"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/portal"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/radio/wpa"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/timesvc"
)

const defaultEventLogMaxSize = 1 << 20

// Config is the daemon configuration file.
type Config struct {
	Radio     RadioConfig     `yaml:"radio"`
	Portal    PortalConfig    `yaml:"portal"`
	BringUp   BringUpConfig   `yaml:"bringup"`
	Time      TimeConfig      `yaml:"time"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// RadioConfig selects and configures the radio backend.
type RadioConfig struct {
	Simulate    bool   `yaml:"simulate"`
	Interface   string `yaml:"interface"`
	APInterface string `yaml:"ap_interface"`
	RunDir      string `yaml:"run_dir"`
}

// PortalConfig configures the setup portal.
type PortalConfig struct {
	Addr           string        `yaml:"addr"`
	SetupSSID      string        `yaml:"setup_ssid"`
	SetupChannel   uint8         `yaml:"setup_channel"`
	RescanInterval time.Duration `yaml:"rescan_interval"`
	MaxBodySize    int           `yaml:"max_body_size"`
	Advertise      bool          `yaml:"advertise"`
}

// BringUpConfig holds the bring-up timeouts and retry policy.
type BringUpConfig struct {
	StartTimeout   time.Duration `yaml:"start_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxCycles      int           `yaml:"max_cycles"`
}

// TimeConfig configures the time service poller.
type TimeConfig struct {
	URL      string        `yaml:"url"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level    string `yaml:"level"`
	EventLog string `yaml:"event_log"`

	// EventLogMaxSize rotates the event log at this many bytes (0 disables).
	EventLogMaxSize int64 `yaml:"event_log_max_size"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SimulatorConfig describes the networks of the simulated radio.
type SimulatorConfig struct {
	Networks []SimNetwork `yaml:"networks"`
}

// SimNetwork is one simulated access point. Password is what the simulated
// network accepts; empty means open.
type SimNetwork struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	Signal   int8   `yaml:"signal"`
	Channel  uint8  `yaml:"channel"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	pc := portal.DefaultConfig()
	return Config{
		Radio: RadioConfig{
			Interface:   wpa.DefaultInterface,
			APInterface: wpa.DefaultAPInterface,
			RunDir:      wpa.DefaultRunDir,
		},
		Portal: PortalConfig{
			Addr:        pc.Addr,
			SetupSSID:   bringup.DefaultSetupSSID,
			MaxBodySize: pc.MaxBodySize,
			Advertise:   true,
		},
		BringUp: BringUpConfig{
			StartTimeout:   bringup.DefaultStartTimeout,
			ConnectTimeout: bringup.DefaultConnectTimeout,
		},
		Time: TimeConfig{
			URL:      timesvc.DefaultURL,
			Interval: timesvc.DefaultPollInterval,
		},
		Log: LogConfig{
			Level:           LogLevelInfo,
			EventLogMaxSize: defaultEventLogMaxSize,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Portal.SetupSSID == "" || len(c.Portal.SetupSSID) > 32 {
		errs = append(errs, errors.New("portal.setup_ssid must be 1-32 bytes"))
	}
	if c.Portal.Addr == "" {
		errs = append(errs, errors.New("portal.addr is required"))
	}
	if c.Portal.RescanInterval < 0 {
		errs = append(errs, errors.New("portal.rescan_interval must not be negative"))
	}
	if c.Portal.MaxBodySize < 0 {
		errs = append(errs, errors.New("portal.max_body_size must not be negative"))
	}
	if c.BringUp.StartTimeout <= 0 {
		errs = append(errs, errors.New("bringup.start_timeout must be positive"))
	}
	if c.BringUp.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("bringup.connect_timeout must be positive"))
	}
	if c.BringUp.MaxCycles < 0 {
		errs = append(errs, errors.New("bringup.max_cycles must not be negative"))
	}
	if c.Time.Interval <= 0 {
		errs = append(errs, errors.New("time.interval must be positive"))
	}
	if c.Log.EventLogMaxSize < 0 {
		errs = append(errs, errors.New("log.event_log_max_size must not be negative"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if !c.Radio.Simulate && c.Radio.Interface == "" {
		errs = append(errs, errors.New("radio.interface is required"))
	}
	for i, n := range c.Simulator.Networks {
		if n.SSID == "" {
			errs = append(errs, fmt.Errorf("simulator.networks[%d].ssid is required", i))
		}
	}
	return errors.Join(errs...)
}
