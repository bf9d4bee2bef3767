package bringup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/credentials"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/metrics"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

// Bring-up defaults.
const (
	// DefaultStartTimeout bounds the wait for "interface started".
	DefaultStartTimeout = 20 * time.Second

	// DefaultConnectTimeout bounds the wait for "connected and addressed".
	DefaultConnectTimeout = 20 * time.Second

	// DefaultPollInterval is the sleep between status checks.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultSetupSSID is the network the device hosts during setup.
	DefaultSetupSSID = "UTC-Fetcher-Setup"
)

// Config configures a Machine.
type Config struct {
	StartTimeout   time.Duration
	ConnectTimeout time.Duration
	PollInterval   time.Duration

	// SetupSSID is the access point name used while waiting for credentials.
	SetupSSID string

	// SetupChannel is the access point channel (0 lets the radio choose).
	SetupChannel uint8

	// Clock drives readiness waits. Defaults to RealClock.
	Clock Clock

	// Logger for operational output (optional).
	Logger *slog.Logger

	// EventLogger records stage transitions (optional).
	EventLogger log.Logger
}

// DefaultConfig returns the default bring-up configuration.
func DefaultConfig() Config {
	return Config{
		StartTimeout:   DefaultStartTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		PollInterval:   DefaultPollInterval,
		SetupSSID:      DefaultSetupSSID,
		Clock:          RealClock{},
	}
}

// Machine is the network bring-up state machine.
// Stage transitions are driven by one goroutine at a time; Stage and the
// callback setters are safe to call concurrently.
type Machine struct {
	radio  wifi.Radio
	config Config
	clock  Clock
	logger *slog.Logger
	events log.Logger

	mu            sync.RWMutex
	stage         Stage
	cycleID       string
	onStageChange func(old, new Stage)
}

// New creates a bring-up machine over radio. Zero fields in cfg take their
// defaults.
func New(radio wifi.Radio, cfg Config) *Machine {
	def := DefaultConfig()
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = def.StartTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.SetupSSID == "" {
		cfg.SetupSSID = def.SetupSSID
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Machine{
		radio:  radio,
		config: cfg,
		clock:  cfg.Clock,
		logger: logger,
		events: log.OrNoop(cfg.EventLogger),
		stage:  StageIdle,
	}
}

// Config returns the effective configuration.
func (m *Machine) Config() Config {
	return m.config
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stage
}

// OnStageChange sets a callback for stage transitions.
func (m *Machine) OnStageChange(fn func(old, new Stage)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStageChange = fn
}

// SetCycleID tags subsequent events with the provisioning cycle ID.
func (m *Machine) SetCycleID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycleID = id
}

// EnterScanMode applies a client-capable configuration, starts the
// interface and waits for it to come up.
func (m *Machine) EnterScanMode(ctx context.Context) error {
	cfg := wifi.Configuration{Client: &wifi.ClientConfig{}}
	if err := m.Apply(ctx, StageScanMode, cfg); err != nil {
		m.fail(err)
		return err
	}
	m.setStage(StageScanMode, "")
	return nil
}

// EnterSetup scans for networks, then brings up the setup access point next
// to the client interface. The scan result is returned for the portal.
func (m *Machine) EnterSetup(ctx context.Context) ([]wifi.AccessPointInfo, error) {
	started := m.clock.Now()
	aps, err := m.radio.Scan(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrScan, err)
		m.fail(err)
		return nil, err
	}
	m.recordScan(aps, m.clock.Now().Sub(started))

	cfg := wifi.Configuration{
		Client: &wifi.ClientConfig{},
		AccessPoint: &wifi.AccessPointConfig{
			SSID:    m.config.SetupSSID,
			Channel: m.config.SetupChannel,
			Auth:    wifi.AuthOpen,
		},
	}
	if err := m.Apply(ctx, StageSetupAccessPoint, cfg); err != nil {
		m.fail(err)
		return nil, err
	}
	m.setStage(StageSetupAccessPoint, "")
	return aps, nil
}

// Connect applies creds as a client configuration, starts the interface,
// connects, and waits until the link is associated and addressed.
func (m *Machine) Connect(ctx context.Context, creds credentials.Credentials) error {
	auth := wifi.AuthWPA2Personal
	if creds.Open() {
		auth = wifi.AuthOpen
	}
	cfg := wifi.Configuration{
		Client: &wifi.ClientConfig{
			SSID:     creds.Name(),
			Password: creds.Secret(),
			Auth:     auth,
		},
	}

	m.setStage(StageClientAttempt, creds.Name())
	if err := m.Apply(ctx, StageClientAttempt, cfg); err != nil {
		m.fail(err)
		return err
	}
	m.setStage(StageConnected, "")
	return nil
}

// Apply runs one configuration step: apply cfg, start, wait until started,
// and, when cfg names a client network, connect and wait until connected
// and addressed. Configurations without a client target (scan mode, setup
// access point) end after the start wait. stage labels errors and metrics.
func (m *Machine) Apply(ctx context.Context, stage Stage, cfg wifi.Configuration) error {
	m.logger.Debug("applying configuration", "stage", stage, "config", cfg.String())

	if err := m.radio.Apply(ctx, cfg); err != nil {
		return fmt.Errorf("%s: %w: %w", stage, ErrConfigure, err)
	}
	if err := m.radio.Start(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", stage, ErrStart, err)
	}

	if err := m.waitStarted(ctx, stage); err != nil {
		return err
	}

	if !cfg.HasTarget() {
		return nil
	}

	if err := m.radio.Connect(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", stage, ErrConnect, err)
	}
	return m.waitConnected(ctx, stage)
}

func (m *Machine) waitStarted(ctx context.Context, stage Stage) error {
	timedOut, err := m.poll(ctx, "started", m.config.StartTimeout, m.radio.IsStarted)
	if err != nil {
		return err
	}
	if timedOut {
		return &WaitError{Kind: WaitStart, Stage: stage, Timeout: m.config.StartTimeout}
	}
	return nil
}

func (m *Machine) waitConnected(ctx context.Context, stage Stage) error {
	var connected, addressed bool
	ready := func() bool {
		connected = m.radio.IsConnected()
		addressed = connected && m.radio.IPAssigned()
		return addressed
	}

	timedOut, err := m.poll(ctx, "connected", m.config.ConnectTimeout, ready)
	if err != nil {
		return err
	}
	if timedOut {
		return &WaitError{
			Kind:      WaitConnect,
			Stage:     stage,
			Timeout:   m.config.ConnectTimeout,
			Connected: connected,
			Addressed: addressed,
		}
	}
	return nil
}

// poll checks ready every PollInterval until it returns true or timeout
// elapses. It reports timedOut, or the context error if ctx ends first.
func (m *Machine) poll(ctx context.Context, condition string, timeout time.Duration, ready func() bool) (timedOut bool, err error) {
	start := m.clock.Now()
	deadline := start.Add(timeout)

	result := metrics.ResultOK
	defer func() {
		metrics.WaitDuration.WithLabelValues(condition, result).Observe(m.clock.Now().Sub(start).Seconds())
	}()

	for {
		if ready() {
			return false, nil
		}
		if !m.clock.Now().Before(deadline) {
			result = metrics.ResultTimeout
			return true, nil
		}
		if err := m.clock.Sleep(ctx, m.config.PollInterval); err != nil {
			result = metrics.ResultError
			return false, err
		}
	}
}

func (m *Machine) setStage(stage Stage, reason string) {
	m.mu.Lock()
	old := m.stage
	m.stage = stage
	cycleID := m.cycleID
	fn := m.onStageChange
	m.mu.Unlock()

	if old == stage {
		return
	}

	metrics.StageTransitionsTotal.WithLabelValues(stage.String()).Inc()
	m.logger.Info("bring-up stage changed", "from", old, "to", stage)
	m.events.Log(log.NewStateEvent(cycleID, log.ComponentBringUp, log.StateEntityStage,
		old.String(), stage.String(), reason))

	if fn != nil {
		fn(old, stage)
	}
}

// fail records err and drops back to idle.
func (m *Machine) fail(err error) {
	m.mu.RLock()
	cycleID := m.cycleID
	m.mu.RUnlock()

	if !errors.Is(err, context.Canceled) {
		m.events.Log(log.NewErrorEvent(cycleID, log.ComponentBringUp, err, m.Stage().String(), true))
	}
	m.setStage(StageIdle, err.Error())
}

func (m *Machine) recordScan(aps []wifi.AccessPointInfo, took time.Duration) {
	m.mu.RLock()
	cycleID := m.cycleID
	m.mu.RUnlock()

	names := make([]string, 0, len(aps))
	for _, ap := range aps {
		names = append(names, ap.SSID)
	}
	m.logger.Info("scan complete", "networks", len(aps), "duration", took)
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		CycleID:   cycleID,
		Component: log.ComponentBringUp,
		Category:  log.CategoryScan,
		Scan:      &log.ScanEvent{Count: len(aps), Networks: names, Duration: took},
	})
}
