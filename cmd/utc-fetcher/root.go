package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/utc-fetcher/utc-fetcher-go/cmd/utc-fetcher/commands"
	"github.com/utc-fetcher/utc-fetcher-go/cmd/utc-fetcher/interactive"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
)

// runFlags are the command-line overrides of the configuration file.
type runFlags struct {
	configPath  string
	simulate    bool
	portalAddr  string
	metricsAddr string
	eventLog    string
	logLevel    string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "Configuration file (YAML)")
	fs.BoolVar(&f.simulate, "simulate", false, "Use the simulated radio")
	fs.StringVar(&f.portalAddr, "portal-addr", "", "Portal listen address")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Prometheus listen address (empty disables)")
	fs.StringVar(&f.eventLog, "event-log", "", "Write provisioning events to this file")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (error, warning, info, debug)")
}

// load reads the configuration and applies the flags that were set.
func (f *runFlags) load(cmd *cobra.Command) (Config, error) {
	cfg, err := LoadConfig(f.configPath)
	if err != nil {
		return Config{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("simulate") {
		cfg.Radio.Simulate = f.simulate
	}
	if fs.Changed("portal-addr") {
		cfg.Portal.Addr = f.portalAddr
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if fs.Changed("event-log") {
		cfg.Log.EventLog = f.eventLog
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "utc-fetcher",
		Short: "Wi-Fi provisioning portal and UTC time fetcher",
		Long: `utc-fetcher brings up a setup access point with a captive portal,
joins the Wi-Fi network submitted there and then polls a web time service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newConsoleCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "utc-fetcher version %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  Go:       %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  OS/Arch:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	return root
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision the network and poll the time service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)

			d, err := newDaemon(cfg, logger)
			if err != nil {
				return err
			}
			defer d.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			logger.Info("utc-fetcher starting", "version", Version, "portal", cfg.Portal.Addr, "simulate", cfg.Radio.Simulate)
			return d.Run(ctx)
		},
	}
	flags.register(cmd)
	return cmd
}

func newConsoleCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run on the simulated radio with an interactive console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			cfg.Radio.Simulate = true

			console, err := interactive.New()
			if err != nil {
				return err
			}
			logger := newLogger(console.Stdout(), cfg.Log.Level)

			d, err := newDaemon(cfg, logger)
			if err != nil {
				console.Close()
				return err
			}
			defer d.Close()

			var (
				mu       sync.Mutex
				lastTime time.Time
			)
			d.onTime = func(t time.Time) {
				mu.Lock()
				lastTime = t
				mu.Unlock()
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- d.Run(ctx)
				console.Close()
			}()

			console.Run(ctx, cancel, interactive.Target{
				Radio:      d.sim,
				Machine:    d.machine,
				Controller: d.controller,
				Portal:     d.portal,
				LastTime: func() (time.Time, bool) {
					mu.Lock()
					defer mu.Unlock()
					return lastTime, !lastTime.IsZero()
				},
			})
			cancel()
			return <-errCh
		},
	}
	flags.register(cmd)
	return cmd
}

// logFilterFlags select events for log view and export.
type logFilterFlags struct {
	cycle     string
	component string
	category  string
	since     time.Duration
}

func (f *logFilterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.cycle, "cycle", "", "Filter by cycle ID prefix")
	fs.StringVar(&f.component, "component", "", "Filter by component (controller, bringup, portal, time)")
	fs.StringVar(&f.category, "category", "", "Filter by category (state, request, scan, error)")
	fs.DurationVar(&f.since, "since", 0, "Only events newer than this duration")
}

func (f *logFilterFlags) filter(now time.Time) (log.Filter, error) {
	filter := log.Filter{CycleID: f.cycle}
	if f.component != "" {
		c, err := commands.ParseComponentFlag(f.component)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Component = &c
	}
	if f.category != "" {
		c, err := commands.ParseCategoryFlag(f.category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	if f.since > 0 {
		start := now.Add(-f.since)
		filter.TimeStart = &start
	}
	return filter, nil
}

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect event log files",
	}

	var viewFlags logFilterFlags
	view := &cobra.Command{
		Use:   "view <file>",
		Short: "View events in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := viewFlags.filter(time.Now())
			if err != nil {
				return err
			}
			return commands.RunView(args[0], filter, cmd.OutOrStdout())
		},
	}
	viewFlags.register(view)

	var exportFlags logFilterFlags
	var output string
	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Export events as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := exportFlags.filter(time.Now())
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return commands.RunExport(args[0], filter, w)
		},
	}
	exportFlags.register(export)
	export.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	stats := &cobra.Command{
		Use:   "stats <file>",
		Short: "Show statistics about the event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunStats(args[0], cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(view, export, stats)
	return cmd
}
