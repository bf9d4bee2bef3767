package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/bringup"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/credentials"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/metrics"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

// ErrGaveUp is returned when MaxCycles failed cycles have run.
var ErrGaveUp = errors.New("provisioning gave up")

// Machine is the bring-up state machine the controller drives.
type Machine interface {
	EnterScanMode(ctx context.Context) error
	EnterSetup(ctx context.Context) ([]wifi.AccessPointInfo, error)
	Connect(ctx context.Context, creds credentials.Credentials) error
	SetCycleID(id string)
}

// Portal collects one set of credentials.
type Portal interface {
	Start(ctx context.Context, aps []wifi.AccessPointInfo) (credentials.Credentials, error)
	SetCycleID(id string)
}

// Step names the part of a cycle that failed.
type Step uint8

const (
	StepScanMode Step = iota + 1
	StepSetup
	StepPortal
	StepConnect
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepScanMode:
		return "scan_mode"
	case StepSetup:
		return "setup"
	case StepPortal:
		return "portal"
	case StepConnect:
		return "connect"
	default:
		return "unknown"
	}
}

// CycleError reports a failed cycle.
type CycleError struct {
	CycleID string
	Step    Step
	Err     error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %s: %s: %v", e.CycleID, e.Step, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// Config configures a Controller.
type Config struct {
	Backoff BackoffConfig

	// MaxCycles stops the loop with ErrGaveUp after that many failed cycles.
	// Zero retries forever.
	MaxCycles int

	// Clock times the pause between cycles. Defaults to bringup.RealClock.
	Clock bringup.Clock

	// Logger for operational output (optional).
	Logger *slog.Logger

	// EventLogger records cycle events (optional).
	EventLogger log.Logger
}

// Stats summarizes the loop so far.
type Stats struct {
	Attempted   int
	Failed      int
	LastCycleID string
	LastError   string
}

// Controller runs provisioning cycles until one connects.
type Controller struct {
	machine Machine
	portal  Portal
	backoff *Backoff
	config  Config
	clock   bringup.Clock
	logger  *slog.Logger
	events  log.Logger
	newID   func() string

	mu      sync.Mutex
	stats   Stats
	onCycle func(cycleID string, err error)
}

// New creates a controller.
func New(machine Machine, portal Portal, cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = bringup.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Controller{
		machine: machine,
		portal:  portal,
		backoff: NewBackoff(cfg.Backoff),
		config:  cfg,
		clock:   clock,
		logger:  logger,
		events:  log.OrNoop(cfg.EventLogger),
		newID:   uuid.NewString,
	}
}

// OnCycle sets a callback invoked after every cycle with its outcome
// (nil on success).
func (c *Controller) OnCycle(fn func(cycleID string, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCycle = fn
}

// Stats returns a snapshot of the loop counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Run repeats provisioning cycles until one ends connected or ctx is done.
func (c *Controller) Run(ctx context.Context) (credentials.Credentials, error) {
	for {
		if err := ctx.Err(); err != nil {
			return credentials.Credentials{}, err
		}

		id := c.newID()
		creds, err := c.runCycle(ctx, id)
		c.finishCycle(id, err)

		if err == nil {
			c.backoff.Reset()
			return creds, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return credentials.Credentials{}, ctxErr
		}

		if c.config.MaxCycles > 0 && c.Stats().Failed >= c.config.MaxCycles {
			return credentials.Credentials{}, fmt.Errorf("%w after %d cycles: %w", ErrGaveUp, c.config.MaxCycles, err)
		}

		delay := c.backoff.Next()
		c.logger.Warn("provisioning cycle failed, retrying",
			"cycle", id, "error", err, "retry_in", delay.Round(time.Millisecond))
		if err := c.clock.Sleep(ctx, delay); err != nil {
			return credentials.Credentials{}, err
		}
	}
}

func (c *Controller) runCycle(ctx context.Context, id string) (credentials.Credentials, error) {
	c.mu.Lock()
	c.stats.Attempted++
	c.stats.LastCycleID = id
	attempt := c.stats.Attempted
	c.mu.Unlock()

	c.machine.SetCycleID(id)
	c.portal.SetCycleID(id)

	c.logger.Info("provisioning cycle started", "cycle", id, "attempt", attempt)
	c.events.Log(log.NewStateEvent(id, log.ComponentController, log.StateEntityCycle,
		"", "STARTED", fmt.Sprintf("attempt %d", attempt)))

	if err := c.machine.EnterScanMode(ctx); err != nil {
		return credentials.Credentials{}, &CycleError{CycleID: id, Step: StepScanMode, Err: err}
	}

	aps, err := c.machine.EnterSetup(ctx)
	if err != nil {
		return credentials.Credentials{}, &CycleError{CycleID: id, Step: StepSetup, Err: err}
	}

	creds, err := c.portal.Start(ctx, aps)
	if err != nil {
		return credentials.Credentials{}, &CycleError{CycleID: id, Step: StepPortal, Err: err}
	}
	c.logger.Info("credentials received", "cycle", id, "network", creds.Name())

	if err := c.machine.Connect(ctx, creds); err != nil {
		return credentials.Credentials{}, &CycleError{CycleID: id, Step: StepConnect, Err: err}
	}
	return creds, nil
}

func (c *Controller) finishCycle(id string, err error) {
	outcome := "connected"
	newState := "CONNECTED"
	reason := ""

	var cerr *CycleError
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome, newState, reason = "canceled", "CANCELED", err.Error()
	case errors.As(err, &cerr):
		outcome, newState, reason = cerr.Step.String()+"_failed", "FAILED", err.Error()
	default:
		outcome, newState, reason = "failed", "FAILED", err.Error()
	}
	metrics.CyclesTotal.WithLabelValues(outcome).Inc()

	c.mu.Lock()
	if err != nil {
		c.stats.Failed++
		c.stats.LastError = err.Error()
	}
	fn := c.onCycle
	c.mu.Unlock()

	if err != nil && newState == "FAILED" {
		c.events.Log(log.NewErrorEvent(id, log.ComponentController, err, outcome, true))
	}
	c.events.Log(log.NewStateEvent(id, log.ComponentController, log.StateEntityCycle,
		"STARTED", newState, reason))

	if fn != nil {
		fn(id, err)
	}
}
