package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByComponent map[log.Component]int
	EventsByCategory  map[log.Category]int
	Cycles            map[string]*CycleStats
	Requests          map[int]int
	Errors            int
	FatalErrors       int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// CycleStats holds statistics for a single provisioning cycle.
type CycleStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Scans     int
	Requests  int
	Network   string
	Outcome   string
}

// CollectStats aggregates every event of the log file.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByComponent: make(map[log.Component]int),
		EventsByCategory:  make(map[log.Category]int),
		Cycles:            make(map[string]*CycleStats),
		Requests:          make(map[int]int),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByComponent[event.Component]++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.Request != nil {
		s.Requests[event.Request.Status]++
	}
	if event.Error != nil {
		s.Errors++
		if event.Error.Fatal {
			s.FatalErrors++
		}
	}

	if event.CycleID == "" {
		return
	}
	cycle, ok := s.Cycles[event.CycleID]
	if !ok {
		cycle = &CycleStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Cycles[event.CycleID] = cycle
	}
	cycle.Events++
	if event.Timestamp.After(cycle.LastSeen) {
		cycle.LastSeen = event.Timestamp
	}
	switch {
	case event.Scan != nil:
		cycle.Scans++
	case event.Request != nil:
		cycle.Requests++
		if event.Request.Network != "" {
			cycle.Network = event.Request.Network
		}
	case event.StateChange != nil && event.StateChange.Entity == log.StateEntityCycle && event.StateChange.OldState != "":
		cycle.Outcome = event.StateChange.NewState
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Provisioning Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}

	fmt.Fprintf(w, "Time Range: %s to %s\n",
		stats.TimeRange.Start.Format(time.RFC3339),
		stats.TimeRange.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
	fmt.Fprintf(w, "Events:     %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Errors:     %d (%d fatal)\n", stats.Errors, stats.FatalErrors)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "By Component:")
	for _, c := range []log.Component{log.ComponentController, log.ComponentBringUp, log.ComponentPortal, log.ComponentTime} {
		if n := stats.EventsByComponent[c]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String(), n)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "By Category:")
	for _, c := range []log.Category{log.CategoryState, log.CategoryRequest, log.CategoryScan, log.CategoryError} {
		if n := stats.EventsByCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String(), n)
		}
	}

	if len(stats.Requests) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Portal Responses:")
		codes := make([]int, 0, len(stats.Requests))
		for code := range stats.Requests {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(w, "  %-12d %d\n", code, stats.Requests[code])
		}
	}

	if len(stats.Cycles) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Cycles (%d):\n", len(stats.Cycles))

	ids := make([]string, 0, len(stats.Cycles))
	for id := range stats.Cycles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return stats.Cycles[ids[i]].FirstSeen.Before(stats.Cycles[ids[j]].FirstSeen)
	})
	for _, id := range ids {
		c := stats.Cycles[id]
		outcome := c.Outcome
		if outcome == "" {
			outcome = "INCOMPLETE"
		}
		fmt.Fprintf(w, "  %s  %-10s events=%d scans=%d requests=%d duration=%s",
			shortenCycleID(id), outcome, c.Events, c.Scans, c.Requests,
			c.LastSeen.Sub(c.FirstSeen).Round(time.Millisecond))
		if c.Network != "" {
			fmt.Fprintf(w, " network=%q", c.Network)
		}
		fmt.Fprintln(w)
	}
}
