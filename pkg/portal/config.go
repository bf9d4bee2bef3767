package portal

import (
	"errors"
	"time"
)

// Portal defaults.
const (
	DefaultAddr = ":80"

	// DefaultInitialBodySize fits a typical name/secret form without growth.
	DefaultInitialBodySize = 128

	// DefaultMaxBodySize caps submission bodies.
	DefaultMaxBodySize = 4 << 10

	DefaultShutdownTimeout   = 5 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Route paths.
const (
	PathIndex  = "/"
	PathSelect = "/wifi_select"
)

// Portal errors.
var (
	// ErrServerSetup: the listener could not be created. Fatal to the cycle.
	ErrServerSetup = errors.New("portal server setup failed")

	// ErrNoCredentials: the portal was torn down before any valid submission.
	ErrNoCredentials = errors.New("no credentials submitted")
)

// Config configures a portal server.
type Config struct {
	// Addr is the listen address.
	Addr string

	// SetupSSID is shown on the page and used as the mDNS instance name.
	SetupSSID string

	// RescanInterval throttles page scans. Zero scans on every request.
	RescanInterval time.Duration

	// InitialBodySize is the first allocation for a submission body.
	InitialBodySize int

	// MaxBodySize is the largest accepted submission body.
	MaxBodySize int

	// ShutdownTimeout bounds the graceful shutdown after the handoff.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default portal configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            DefaultAddr,
		InitialBodySize: DefaultInitialBodySize,
		MaxBodySize:     DefaultMaxBodySize,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.InitialBodySize <= 0 {
		c.InitialBodySize = def.InitialBodySize
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = def.MaxBodySize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	return c
}
