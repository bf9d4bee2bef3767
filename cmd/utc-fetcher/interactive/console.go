// Package interactive provides the interactive console for a daemon running
// on the simulated radio.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/bringup"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/provision"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/radio/sim"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

// StageSource reports the bring-up stage.
type StageSource interface {
	Stage() bringup.Stage
}

// StatsSource reports the provisioning loop counters.
type StatsSource interface {
	Stats() provision.Stats
}

// NetworkSource reports the names the portal currently offers.
type NetworkSource interface {
	Networks() []string
}

// Target is what the console inspects and drives.
type Target struct {
	Radio      *sim.Radio
	Machine    StageSource
	Controller StatsSource
	Portal     NetworkSource

	// LastTime returns the most recent fetched time (optional).
	LastTime func() (time.Time, bool)
}

// Console handles interactive mode.
type Console struct {
	rl *readline.Instance
}

// New creates a console reading from the terminal.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "utc-fetcher> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Close stops a pending Readline.
func (c *Console) Close() error {
	return c.rl.Close()
}

// Run starts the interactive command loop over t. It calls cancel when the
// user quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc, t Target) {
	defer c.rl.Close()

	out := c.rl.Stdout()
	printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}

		if quit := Execute(ctx, t, out, line); quit {
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one console command and reports whether the user asked to
// quit.
func Execute(ctx context.Context, t Target, w io.Writer, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printHelp(w)
	case "status", "s":
		cmdStatus(t, w)
	case "networks", "n":
		cmdNetworks(t, w)
	case "scan":
		cmdScan(ctx, t, w)
	case "add", "a":
		cmdAdd(t, w, args)
	case "remove", "rm":
		cmdRemove(t, w, args)
	case "fail", "f":
		cmdFail(t, w, args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Commands:
  status, s                        Show stage, radio and loop counters
  networks, n                      List simulated networks
  scan                             Scan with the simulated radio
  add, a <ssid> [password] [dBm]   Add or replace a simulated network
  remove, rm <ssid>                Remove a simulated network
  fail, f <op> [message]           Fail the next scan/apply/start/connect
  help, ?                          Show this help
  quit, q                          Exit`)
}

func cmdStatus(t Target, w io.Writer) {
	fmt.Fprintf(w, "Stage:   %s\n", t.Machine.Stage())
	fmt.Fprintf(w, "Radio:   %s\n", t.Radio)

	stats := t.Controller.Stats()
	fmt.Fprintf(w, "Cycles:  %d attempted, %d failed\n", stats.Attempted, stats.Failed)
	if stats.LastCycleID != "" {
		fmt.Fprintf(w, "Cycle:   %s\n", stats.LastCycleID)
	}
	if stats.LastError != "" {
		fmt.Fprintf(w, "Error:   %s\n", stats.LastError)
	}

	if offered := t.Portal.Networks(); len(offered) > 0 {
		fmt.Fprintf(w, "Portal:  %s\n", strings.Join(offered, ", "))
	}
	if t.LastTime != nil {
		if ts, ok := t.LastTime(); ok {
			fmt.Fprintf(w, "Time:    %s\n", ts.UTC().Format(time.RFC3339Nano))
		}
	}
}

func cmdNetworks(t Target, w io.Writer) {
	printNetworks(w, t.Radio.Networks())
}

func cmdScan(ctx context.Context, t Target, w io.Writer) {
	aps, err := t.Radio.Scan(ctx)
	if err != nil {
		fmt.Fprintf(w, "Scan failed: %v\n", err)
		return
	}
	printNetworks(w, aps)
}

func printNetworks(w io.Writer, aps []wifi.AccessPointInfo) {
	if len(aps) == 0 {
		fmt.Fprintln(w, "No networks.")
		return
	}
	for _, ap := range aps {
		fmt.Fprintf(w, "  %-32q %4d dBm  ch %-3d %s\n", ap.SSID, ap.Signal, ap.Channel, ap.Auth)
	}
}

func cmdAdd(t Target, w io.Writer, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(w, "Usage: add <ssid> [password] [dBm]")
		return
	}

	ap := wifi.AccessPointInfo{SSID: args[0], Signal: -60, Auth: wifi.AuthOpen}
	password := ""
	if len(args) > 1 {
		password = args[1]
		ap.Auth = wifi.AuthWPA2Personal
	}
	if len(args) > 2 {
		dbm, err := strconv.ParseInt(args[2], 10, 8)
		if err != nil {
			fmt.Fprintf(w, "Invalid signal %q: %v\n", args[2], err)
			return
		}
		ap.Signal = int8(dbm)
	}

	aps := slices.DeleteFunc(t.Radio.Networks(), func(a wifi.AccessPointInfo) bool {
		return a.SSID == ap.SSID
	})
	t.Radio.SetNetworks(append(aps, ap))
	t.Radio.AddKnown(ap.SSID, password)
	fmt.Fprintf(w, "Added %q (%s)\n", ap.SSID, ap.Auth)
}

func cmdRemove(t Target, w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: remove <ssid>")
		return
	}
	before := t.Radio.Networks()
	after := slices.DeleteFunc(slices.Clone(before), func(a wifi.AccessPointInfo) bool {
		return a.SSID == args[0]
	})
	if len(after) == len(before) {
		fmt.Fprintf(w, "No network %q\n", args[0])
		return
	}
	t.Radio.SetNetworks(after)
	fmt.Fprintf(w, "Removed %q\n", args[0])
}

func cmdFail(t Target, w io.Writer, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(w, "Usage: fail <scan|apply|start|connect> [message]")
		return
	}
	op, err := parseOp(args[0])
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	msg := "injected failure"
	if len(args) > 1 {
		msg = strings.Join(args[1:], " ")
	}
	t.Radio.FailNext(op, errors.New(msg))
	fmt.Fprintf(w, "Next %s will fail: %s\n", op, msg)
}

func parseOp(s string) (sim.Op, error) {
	for _, op := range []sim.Op{sim.OpScan, sim.OpApply, sim.OpStart, sim.OpConnect} {
		if strings.EqualFold(s, op.String()) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("invalid operation: %s (must be scan, apply, start, or connect)", s)
}
