package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/bringup"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/discovery"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/metrics"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/portal"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/provision"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/radio/sim"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/radio/wpa"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/timesvc"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

// Simulated radio timings.
const (
	simScanLatency    = 300 * time.Millisecond
	simStartLatency   = 500 * time.Millisecond
	simConnectLatency = 2 * time.Second
	simAddressLatency = time.Second
)

const metricsShutdownTimeout = 5 * time.Second

// defaultSimNetworks is used when the simulator section lists no networks.
var defaultSimNetworks = []SimNetwork{
	{SSID: "Cafe", Signal: -48, Channel: 1},
	{SSID: "Home", Password: "correct horse", Signal: -61, Channel: 6},
	{SSID: "Neighbour", Password: "not-yours-1", Signal: -80, Channel: 11},
}

// daemon wires the provisioning components together.
type daemon struct {
	cfg        Config
	logger     *slog.Logger
	events     log.Logger
	radio      wifi.Radio
	sim        *sim.Radio
	machine    *bringup.Machine
	portal     *portal.Server
	controller *provision.Controller
	timeClient *timesvc.Client
	onTime     func(t time.Time)

	closers []func() error
}

func newDaemon(cfg Config, logger *slog.Logger) (*daemon, error) {
	d := &daemon{cfg: cfg, logger: logger}

	if err := d.setupEventLog(); err != nil {
		return nil, err
	}
	d.setupRadio()

	d.machine = bringup.New(d.radio, bringup.Config{
		StartTimeout:   cfg.BringUp.StartTimeout,
		ConnectTimeout: cfg.BringUp.ConnectTimeout,
		SetupSSID:      cfg.Portal.SetupSSID,
		SetupChannel:   cfg.Portal.SetupChannel,
		Logger:         logger.With("component", "bringup"),
		EventLogger:    d.events,
	})

	opts := []portal.Option{
		portal.WithLogger(logger.With("component", "portal")),
		portal.WithEventLogger(d.events),
	}
	if cfg.Portal.Advertise {
		iface := ""
		if !cfg.Radio.Simulate {
			iface = cfg.Radio.APInterface
		}
		opts = append(opts, portal.WithAdvertiser(discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{
			Interface: iface,
		})))
	}
	d.portal = portal.New(portal.Config{
		Addr:           cfg.Portal.Addr,
		SetupSSID:      cfg.Portal.SetupSSID,
		RescanInterval: cfg.Portal.RescanInterval,
		MaxBodySize:    cfg.Portal.MaxBodySize,
	}, d.radio, opts...)

	d.controller = provision.New(d.machine, d.portal, provision.Config{
		Backoff:     provision.DefaultBackoffConfig(),
		MaxCycles:   cfg.BringUp.MaxCycles,
		Logger:      logger.With("component", "controller"),
		EventLogger: d.events,
	})

	tc := timesvc.DefaultConfig()
	tc.URL = cfg.Time.URL
	d.timeClient = timesvc.NewClient(tc,
		timesvc.WithLogger(logger.With("component", "time")),
		timesvc.WithEventLogger(d.events),
	)
	return d, nil
}

func (d *daemon) setupEventLog() error {
	loggers := []log.Logger{log.NewSlogAdapter(d.logger.With("component", "events"))}
	if d.cfg.Log.EventLog != "" {
		fl, err := log.NewFileLogger(d.cfg.Log.EventLog, log.WithMaxSize(d.cfg.Log.EventLogMaxSize))
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		d.closers = append(d.closers, fl.Close)
		loggers = append(loggers, fl)
	}
	d.events = log.NewMultiLogger(loggers...)
	return nil
}

func (d *daemon) setupRadio() {
	if d.cfg.Radio.Simulate {
		networks := d.cfg.Simulator.Networks
		if len(networks) == 0 {
			networks = defaultSimNetworks
		}
		aps := make([]wifi.AccessPointInfo, 0, len(networks))
		known := make(map[string]string, len(networks))
		for _, n := range networks {
			auth := wifi.AuthWPA2Personal
			if n.Password == "" {
				auth = wifi.AuthOpen
			}
			aps = append(aps, wifi.AccessPointInfo{SSID: n.SSID, Signal: n.Signal, Channel: n.Channel, Auth: auth})
			known[n.SSID] = n.Password
		}
		d.sim = sim.New(sim.Config{
			Networks:       aps,
			Known:          known,
			ScanLatency:    simScanLatency,
			StartLatency:   simStartLatency,
			ConnectLatency: simConnectLatency,
			AddressLatency: simAddressLatency,
		})
		d.radio = d.sim
		d.logger.Info("using simulated radio", "networks", len(aps))
		return
	}

	wc := wpa.DefaultConfig()
	wc.Interface = d.cfg.Radio.Interface
	wc.APInterface = d.cfg.Radio.APInterface
	wc.RunDir = d.cfg.Radio.RunDir
	wc.Logger = d.logger.With("component", "radio")
	driver := wpa.New(wc)
	d.closers = append(d.closers, driver.Close)
	d.radio = driver
}

// Run provisions the network and then polls the time service until ctx is
// done. It returns nil on cancellation.
func (d *daemon) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if d.cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, d.cfg.Metrics.Addr, d.logger)
		})
	}

	g.Go(func() error {
		creds, err := d.controller.Run(gctx)
		if err != nil {
			return fmt.Errorf("provisioning: %w", err)
		}
		d.logger.Info("network connected", "network", creds.Name())

		poller := &timesvc.Poller{
			Fetcher:  d.timeClient,
			Interval: d.cfg.Time.Interval,
			Logger:   d.logger.With("component", "time"),
			OnTime:   d.onTime,
		}
		return poller.Run(gctx)
	})

	err := g.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the radio and the event log.
func (d *daemon) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: portal.DefaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", "error", err)
		}
		return ctx.Err()
	}
}
