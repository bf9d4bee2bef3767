// Package portal implements the setup portal: a two-route HTTP server that
// lists nearby networks and accepts one set of credentials.
//
// # Routes
//
//	GET  /             selection page; one <option> per scanned network name
//	POST /wifi_select  URL-encoded "name=<network>&secret=<value>" submission
//
// The page re-scans through the injected scanner on every request. A positive
// Config.RescanInterval throttles scans; a throttled request renders the most
// recent list instead.
//
// # Lifecycle
//
// Start listens, serves, and blocks until the first valid submission is handed
// off or ctx ends. Before it returns the HTTP server has been shut down, so a
// Server never delivers two submissions from the same Start call.
//
// Submission outcomes:
//
//	200  credentials accepted and handed off
//	400  body empty, unreadable, malformed or failing validation
//	409  another submission already won
//	413  body larger than Config.MaxBodySize
//
// A rejected submission never ends the wait; the user can correct the form and
// try again on the same page.
package portal
