// Package commands implements the utc-fetcher event log commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Request != nil:
		typeLabel = "Request"
	case event.Scan != nil:
		typeLabel = "Scan"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [cycle:%s] %-10s %s\n", ts, shortenCycleID(event.CycleID), event.Component.String(), typeLabel)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Request != nil:
		formatRequestDetails(w, event.Request)
	case event.Scan != nil:
		formatScanDetails(w, event.Scan)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenCycleID returns the first 8 characters of the cycle ID.
func shortenCycleID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatRequestDetails(w io.Writer, req *log.RequestEvent) {
	fmt.Fprintf(w, "  %s %s -> %d", req.Method, req.Path, req.Status)
	if req.Duration > 0 {
		fmt.Fprintf(w, " (%s)", formatDuration(req.Duration))
	}
	fmt.Fprintln(w)
	if req.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", req.RemoteAddr)
	}
	if req.Network != "" {
		fmt.Fprintf(w, "  Network: %q\n", req.Network)
	}
}

func formatScanDetails(w io.Writer, scan *log.ScanEvent) {
	fmt.Fprintf(w, "  Found: %d", scan.Count)
	if scan.Duration > 0 {
		fmt.Fprintf(w, " in %s", formatDuration(scan.Duration))
	}
	fmt.Fprintln(w)
	if len(scan.Networks) > 0 {
		quoted := make([]string, len(scan.Networks))
		for i, n := range scan.Networks {
			quoted[i] = fmt.Sprintf("%q", n)
		}
		fmt.Fprintf(w, "  Networks: %s\n", strings.Join(quoted, ", "))
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
	if e.Fatal {
		fmt.Fprintln(w, "  Fatal: yes")
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseComponentFlag parses a component name (case-insensitive).
func ParseComponentFlag(s string) (log.Component, error) {
	switch strings.ToLower(s) {
	case "controller":
		return log.ComponentController, nil
	case "bringup":
		return log.ComponentBringUp, nil
	case "portal":
		return log.ComponentPortal, nil
	case "time":
		return log.ComponentTime, nil
	default:
		return 0, fmt.Errorf("invalid component: %s (must be controller, bringup, portal, or time)", s)
	}
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryState, nil
	case "request":
		return log.CategoryRequest, nil
	case "scan":
		return log.CategoryScan, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be state, request, scan, or error)", s)
	}
}

// RunView prints every event of the log file that matches filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}
