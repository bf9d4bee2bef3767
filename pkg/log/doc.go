// Package log provides structured provisioning event logging.
//
// This package defines the Logger interface and Event types for capturing what
// the device did while bringing its network up: bring-up stage transitions,
// portal requests, scans, handoffs and errors. It is separate from operational
// logging (slog) - the event log is a machine-readable trace that survives for
// post-mortem analysis of a device that never got online.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// On the device: write to a binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/utc-fetcher/events.elog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Every event names the Component that produced it and carries exactly one
// payload:
//   - StateChange: bring-up stage or portal lifecycle transitions
//   - Request: a portal HTTP request and its outcome
//   - Scan: a completed network scan
//   - Error: a failure at any component
//
// Events of one provisioning cycle share a CycleID.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events (.elog). The "utc-fetcher log"
// command views, filters and summarizes them.
package log
