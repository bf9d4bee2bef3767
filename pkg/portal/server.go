package portal

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/credentials"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/discovery"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/handoff"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/metrics"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Portal states recorded in the event log.
const (
	stateStopped   = "STOPPED"
	stateListening = "LISTENING"
)

// ListenFunc creates the portal listener.
type ListenFunc func(network, address string) (net.Listener, error)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEventLogger sets the provisioning event logger.
func WithEventLogger(l log.Logger) Option {
	return func(s *Server) {
		s.events = log.OrNoop(l)
	}
}

// WithAdvertiser announces the portal over mDNS while it runs.
func WithAdvertiser(a discovery.Advertiser) Option {
	return func(s *Server) {
		s.advertiser = a
	}
}

// WithListen replaces net.Listen.
func WithListen(fn ListenFunc) Option {
	return func(s *Server) {
		if fn != nil {
			s.listen = fn
		}
	}
}

// WithOnListening registers a callback invoked once the portal accepts
// connections.
func WithOnListening(fn func(addr net.Addr)) Option {
	return func(s *Server) {
		s.onListening = fn
	}
}

// Server is the setup portal.
type Server struct {
	config      Config
	scanner     wifi.Scanner
	logger      *slog.Logger
	events      log.Logger
	advertiser  discovery.Advertiser
	listen      ListenFunc
	onListening func(addr net.Addr)

	mu       sync.Mutex
	networks []string
	limiter  *rate.Limiter
	cycleID  string
}

// New creates a portal server. scanner backs the page re-scans.
func New(cfg Config, scanner wifi.Scanner, opts ...Option) *Server {
	s := &Server{
		config:  cfg.withDefaults(),
		scanner: scanner,
		logger:  slog.New(slog.DiscardHandler),
		events:  log.NoopLogger{},
		listen:  net.Listen,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.config
}

// SetCycleID tags subsequent events with the provisioning cycle ID.
func (s *Server) SetCycleID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycleID = id
}

// Networks returns the network names the page currently offers.
func (s *Server) Networks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.networks...)
}

// Start serves the portal seeded with aps and blocks until a valid
// submission is handed off or ctx ends. The HTTP server is shut down before
// Start returns.
//
// Errors: ErrServerSetup when the listener cannot be created; ErrNoCredentials
// (wrapping ctx.Err() or the serve failure) when the portal ends without a
// submission.
func (s *Server) Start(ctx context.Context, aps []wifi.AccessPointInfo) (credentials.Credentials, error) {
	s.mu.Lock()
	s.networks = networkNames(aps)
	if s.config.RescanInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(s.config.RescanInterval), 1)
		// The seed list is a fresh scan.
		s.limiter.Allow()
	} else {
		s.limiter = nil
	}
	cycleID := s.cycleID
	s.mu.Unlock()

	ln, err := s.listen("tcp", s.config.Addr)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrServerSetup, err)
		s.events.Log(log.NewErrorEvent(cycleID, log.ComponentPortal, err, "listen", true))
		return credentials.Credentials{}, err
	}

	slot := handoff.New[credentials.Credentials]()
	srv := &http.Server{
		Handler:           s.routes(slot),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	started := time.Now()
	addr := ln.Addr()
	s.logger.Info("portal listening", "addr", addr.String(), "networks", len(aps))
	s.events.Log(log.NewStateEvent(cycleID, log.ComponentPortal, log.StateEntityPortal,
		stateStopped, stateListening, addr.String()))
	s.advertise(ctx, addr, cycleID)
	if s.onListening != nil {
		s.onListening(addr)
	}

	// Any way out other than a submission closes the slot.
	stop := make(chan struct{})
	watchDone := make(chan struct{})
	var serveFailure error
	go func() {
		defer close(watchDone)
		select {
		case <-ctx.Done():
			slot.Close()
		case err := <-serveErr:
			serveFailure = err
			slot.Close()
		case <-stop:
		}
	}()

	creds, waitErr := slot.Wait()
	close(stop)
	<-watchDone

	s.shutdown(srv)
	slot.Close()
	s.stopAdvertising()
	metrics.PortalWaitSeconds.Observe(time.Since(started).Seconds())

	if waitErr != nil {
		switch {
		case serveFailure != nil:
			err = fmt.Errorf("%w: server stopped: %w", ErrNoCredentials, serveFailure)
		case ctx.Err() != nil:
			err = fmt.Errorf("%w: %w", ErrNoCredentials, ctx.Err())
		default:
			err = ErrNoCredentials
		}
		s.logger.Info("portal stopped without credentials", "error", err)
		s.events.Log(log.NewStateEvent(cycleID, log.ComponentPortal, log.StateEntityPortal,
			stateListening, stateStopped, err.Error()))
		return credentials.Credentials{}, err
	}

	s.logger.Info("portal stopped", "network", creds.Name())
	s.events.Log(log.NewStateEvent(cycleID, log.ComponentPortal, log.StateEntityPortal,
		stateListening, stateStopped, "credentials received"))
	return creds, nil
}

func (s *Server) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("portal shutdown incomplete, closing", "error", err)
		_ = srv.Close()
	}
}

func (s *Server) advertise(ctx context.Context, addr net.Addr, cycleID string) {
	if s.advertiser == nil || s.config.SetupSSID == "" {
		return
	}

	info := &discovery.PortalInfo{
		Instance: s.config.SetupSSID,
		Path:     PathIndex,
		CycleID:  cycleID,
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		info.Port = uint16(tcp.Port)
	}

	if err := s.advertiser.AdvertisePortal(ctx, info); err != nil {
		s.logger.Warn("portal advertisement failed", "error", err)
	}
}

func (s *Server) stopAdvertising() {
	if s.advertiser == nil {
		return
	}
	if err := s.advertiser.StopPortal(); err != nil {
		s.logger.Warn("failed to withdraw portal advertisement", "error", err)
	}
}

// currentNetworks re-scans unless throttled, falling back to the last list.
func (s *Server) currentNetworks(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	limiter := s.limiter
	s.mu.Unlock()

	if limiter != nil && !limiter.Allow() {
		metrics.PortalScansTotal.WithLabelValues("cached").Inc()
		return s.Networks(), nil
	}

	started := time.Now()
	aps, err := s.scanner.Scan(ctx)
	if err != nil {
		metrics.PortalScansTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}
	metrics.PortalScansTotal.WithLabelValues(metrics.ResultOK).Inc()

	names := networkNames(aps)
	took := time.Since(started)

	s.mu.Lock()
	s.networks = names
	cycleID := s.cycleID
	s.mu.Unlock()

	s.events.Log(log.Event{
		Timestamp: time.Now(),
		CycleID:   cycleID,
		Component: log.ComponentPortal,
		Category:  log.CategoryScan,
		Scan:      &log.ScanEvent{Count: len(aps), Networks: names, Duration: took},
	})
	return names, nil
}

// networkNames returns the distinct non-empty SSIDs in scan order.
func networkNames(aps []wifi.AccessPointInfo) []string {
	seen := make(map[string]struct{}, len(aps))
	names := make([]string, 0, len(aps))
	for _, ap := range aps {
		if ap.SSID == "" {
			continue
		}
		if _, dup := seen[ap.SSID]; dup {
			continue
		}
		seen[ap.SSID] = struct{}{}
		names = append(names, ap.SSID)
	}
	return names
}

// errAlreadySubmitted rejects submissions that lost the race.
var errAlreadySubmitted = errors.New("credentials already submitted")
