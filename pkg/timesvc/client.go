package timesvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/body"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/metrics"
)

// Client defaults.
const (
	DefaultURL = "https://www.timeapi.io/api/Time/current/zone?timeZone=UTC"

	// DefaultInitialBodySize fits a typical response without growth.
	DefaultInitialBodySize = 366

	DefaultTimeout      = 10 * time.Second
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
	DefaultTripAfter    = 5
	DefaultOpenTimeout  = 30 * time.Second
)

// Layout is the "dateTime" format: no zone, up to nanosecond fractions.
const Layout = "2006-01-02T15:04:05.999999999"

// Time service errors.
var (
	ErrStatus      = errors.New("unexpected status")
	ErrDecode      = errors.New("invalid time response")
	ErrUnavailable = errors.New("time service unavailable")
)

// Config configures a Client.
type Config struct {
	URL             string
	InitialBodySize int
	Timeout         time.Duration
	RetryMax        int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration

	// TripAfter consecutive failures open the circuit for OpenTimeout.
	TripAfter   uint32
	OpenTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		URL:             DefaultURL,
		InitialBodySize: DefaultInitialBodySize,
		Timeout:         DefaultTimeout,
		RetryMax:        DefaultRetryMax,
		RetryWaitMin:    DefaultRetryWaitMin,
		RetryWaitMax:    DefaultRetryWaitMax,
		TripAfter:       DefaultTripAfter,
		OpenTimeout:     DefaultOpenTimeout,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEventLogger sets the event logger for fetch failures.
func WithEventLogger(l log.Logger) Option {
	return func(c *Client) {
		c.events = log.OrNoop(l)
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// Client queries the time service.
type Client struct {
	config    Config
	logger    *slog.Logger
	events    log.Logger
	transport http.RoundTripper
	http      *retryablehttp.Client
	breaker   *gobreaker.CircuitBreaker
}

// NewClient creates a time service client. Zero fields in cfg take defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.InitialBodySize <= 0 {
		cfg.InitialBodySize = def.InitialBodySize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = def.RetryWaitMin
	}
	if cfg.RetryWaitMax < cfg.RetryWaitMin {
		cfg.RetryWaitMax = max(def.RetryWaitMax, cfg.RetryWaitMin)
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = def.TripAfter
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	c := &Client{
		config:    cfg,
		logger:    slog.New(slog.DiscardHandler),
		events:    log.NoopLogger{},
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = &retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: c.transport,
		},
		Logger:       c.logger,
		RetryWaitMin: cfg.RetryWaitMin,
		RetryWaitMax: cfg.RetryWaitMax,
		RetryMax:     cfg.RetryMax,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	tripAfter := cfg.TripAfter
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "timesvc",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("time service circuit changed", "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a service failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c
}

// Current returns the time reported by the service, in UTC.
func (c *Client) Current(ctx context.Context) (time.Time, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		metrics.TimeFetchesTotal.WithLabelValues(metrics.ResultError).Inc()
		c.events.Log(log.NewErrorEvent("", log.ComponentTime, err, "fetch", false))
		return time.Time{}, err
	}

	metrics.TimeFetchesTotal.WithLabelValues(metrics.ResultOK).Inc()
	return v.(time.Time), nil
}

func (c *Client) fetch(ctx context.Context) (time.Time, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	buf := make([]byte, c.config.InitialBodySize)
	if _, err := body.Read(resp.Body, &buf); err != nil {
		return time.Time{}, fmt.Errorf("read response: %w", err)
	}
	return Parse(buf)
}

type response struct {
	DateTime string `json:"dateTime"`
}

// Parse decodes a time service response body.
func Parse(data []byte) (time.Time, error) {
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if r.DateTime == "" {
		return time.Time{}, fmt.Errorf("%w: missing dateTime", ErrDecode)
	}

	t, err := time.ParseInLocation(Layout, r.DateTime, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return t, nil
}
