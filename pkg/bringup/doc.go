// Package bringup drives the network interface through the provisioning modes.
//
// # Stages
//
// The machine moves the radio through three stages:
//
//  1. SCAN_MODE: a client-capable configuration is applied and started. The
//     radio cannot scan while it is purely an access point.
//  2. SETUP_ACCESS_POINT: nearby networks are scanned, then a mixed
//     configuration (client + access point with the well-known setup SSID) is
//     applied and started so the user can reach the setup portal.
//  3. CLIENT_ATTEMPT: the submitted credentials are applied as a client
//     configuration, started, and the radio is told to connect.
//
// A successful client attempt ends in CONNECTED. Any failure drops the machine
// back to IDLE; the caller restarts from SCAN_MODE.
//
// # Readiness Waits
//
// The radio reports readiness through state that only becomes observable some
// time after a command returns. Every stage therefore pairs a synchronous
// apply/start call with a bounded poll of the relevant status:
//
//	started                  - up to StartTimeout (20s)
//	connected AND addressed  - up to ConnectTimeout (20s)
//
// Each wait fails with its own error so callers can tell "radio never came up"
// (ErrWaitStart) from "associated but never got an address" (ErrWaitConnect).
// Waits poll with a sleep interval against a Clock; tests inject a fake clock
// to make timeouts deterministic.
package bringup
