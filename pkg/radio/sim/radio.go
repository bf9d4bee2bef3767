package sim

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/bringup"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

// Simulation errors.
var (
	ErrNotConfigured   = errors.New("no configuration applied")
	ErrNotStarted      = errors.New("interface not started")
	ErrAccessPointOnly = errors.New("cannot scan in access-point-only mode")
	ErrNoTarget        = errors.New("no client network configured")
)

// Op names a radio operation for failure injection.
type Op uint8

const (
	OpScan Op = iota
	OpApply
	OpStart
	OpConnect
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpScan:
		return "scan"
	case OpApply:
		return "apply"
	case OpStart:
		return "start"
	case OpConnect:
		return "connect"
	default:
		return "unknown"
	}
}

// Never disables a readiness flag when used as a latency.
const Never time.Duration = -1

// Config describes the simulated environment.
type Config struct {
	// Networks are returned by Scan, in order.
	Networks []wifi.AccessPointInfo

	// Known maps network names to their passwords. Joining any other
	// network, or with another password, never associates.
	Known map[string]string

	ScanLatency    time.Duration
	StartLatency   time.Duration
	ConnectLatency time.Duration
	AddressLatency time.Duration

	// Clock drives latencies. Defaults to bringup.RealClock.
	Clock bringup.Clock
}

// Radio is a simulated wifi.Radio. It is safe for concurrent use.
type Radio struct {
	clock bringup.Clock

	mu        sync.Mutex
	cfg       Config
	current   wifi.Configuration
	applied   []wifi.Configuration
	started   bool
	startedAt time.Time
	joining   bool
	joinedAt  time.Time
	scans     int
	failures  map[Op][]error
}

// New creates a simulated radio.
func New(cfg Config) *Radio {
	clock := cfg.Clock
	if clock == nil {
		clock = bringup.RealClock{}
	}
	return &Radio{
		clock:    clock,
		cfg:      cfg,
		failures: make(map[Op][]error),
	}
}

// FailNext makes the next call of op return err. Calls queue in order.
func (r *Radio) FailNext(op Op, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = append(r.failures[op], err)
}

// SetNetworks replaces the scan result.
func (r *Radio) SetNetworks(aps []wifi.AccessPointInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Networks = slices.Clone(aps)
}

// Networks returns the current scan result.
func (r *Radio) Networks() []wifi.AccessPointInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.cfg.Networks)
}

// AddKnown registers a joinable network.
func (r *Radio) AddKnown(ssid, password string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.Known == nil {
		r.cfg.Known = make(map[string]string)
	}
	r.cfg.Known[ssid] = password
}

// Applied returns every configuration applied so far.
func (r *Radio) Applied() []wifi.Configuration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.applied)
}

// Current returns the active configuration.
func (r *Radio) Current() wifi.Configuration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Scans returns how many scans completed.
func (r *Radio) Scans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

// Scan returns the configured networks after ScanLatency.
func (r *Radio) Scan(ctx context.Context) ([]wifi.AccessPointInfo, error) {
	r.mu.Lock()
	if err := r.takeFailure(OpScan); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if !r.current.CanScan() {
		r.mu.Unlock()
		return nil, ErrAccessPointOnly
	}
	latency := r.cfg.ScanLatency
	r.mu.Unlock()

	if latency > 0 {
		if err := r.clock.Sleep(ctx, latency); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans++
	return slices.Clone(r.cfg.Networks), nil
}

// Apply stores cfg and stops the interface.
func (r *Radio) Apply(_ context.Context, cfg wifi.Configuration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(OpApply); err != nil {
		return err
	}
	if cfg.Mode() == wifi.ModeNone {
		return ErrNotConfigured
	}

	r.current = cfg
	r.applied = append(r.applied, cfg)
	r.started = false
	r.joining = false
	return nil
}

// Start brings the interface up; IsStarted turns true after StartLatency.
func (r *Radio) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(OpStart); err != nil {
		return err
	}
	if r.current.Mode() == wifi.ModeNone {
		return ErrNotConfigured
	}

	r.started = true
	r.startedAt = r.clock.Now()
	return nil
}

// Connect begins association with the configured client network.
func (r *Radio) Connect(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(OpConnect); err != nil {
		return err
	}
	if !r.started {
		return ErrNotStarted
	}
	if !r.current.HasTarget() {
		return ErrNoTarget
	}

	r.joining = true
	r.joinedAt = r.clock.Now()
	return nil
}

// IsStarted reports whether the interface is up.
func (r *Radio) IsStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startedLocked()
}

// IsConnected reports whether the client link is associated.
func (r *Radio) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedLocked()
}

// IPAssigned reports whether the client link has an address.
func (r *Radio) IPAssigned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connectedLocked() {
		return false
	}
	return r.elapsed(r.joinedAt, r.cfg.ConnectLatency, r.cfg.AddressLatency)
}

// String summarizes the radio state.
func (r *Radio) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("config=%s started=%t connected=%t scans=%d",
		r.current.String(), r.startedLocked(), r.connectedLocked(), r.scans)
}

func (r *Radio) startedLocked() bool {
	return r.started && r.elapsed(r.startedAt, r.cfg.StartLatency)
}

func (r *Radio) connectedLocked() bool {
	if !r.joining || !r.startedLocked() {
		return false
	}
	client := r.current.Client
	password, known := r.cfg.Known[client.SSID]
	if !known || password != client.Password {
		return false
	}
	return r.elapsed(r.joinedAt, r.cfg.ConnectLatency)
}

// elapsed reports whether the sum of latencies has passed since t.
// Any Never latency makes it false.
func (r *Radio) elapsed(t time.Time, latencies ...time.Duration) bool {
	var total time.Duration
	for _, l := range latencies {
		if l < 0 {
			return false
		}
		total += l
	}
	return !r.clock.Now().Before(t.Add(total))
}

func (r *Radio) takeFailure(op Op) error {
	queue := r.failures[op]
	if len(queue) == 0 {
		return nil
	}
	r.failures[op] = queue[1:]
	return fmt.Errorf("simulated %s failure: %w", op, queue[0])
}

var _ wifi.Radio = (*Radio)(nil)
