// Command utc-fetcher provisions Wi-Fi through a setup portal and then
// reports the current UTC time from a web time service.
//
// On start the device scans for networks, raises an open setup access
// point and serves a page listing the networks found. Once a network name
// and password are submitted it joins that network. A failed join starts
// the cycle over.
//
// Usage:
//
//	utc-fetcher <command> [flags]
//
// Commands:
//
//	run       Provision the network and poll the time service
//	console   Run on the simulated radio with an interactive console
//	log       Inspect event log files (view, stats, export)
//	version   Print the version
//
// Examples:
//
//	# Run with a configuration file
//	utc-fetcher run --config /etc/utc-fetcher.yaml
//
//	# Try the portal on a workstation
//	utc-fetcher run --simulate --portal-addr :8080
//
//	# Show the events of one cycle
//	utc-fetcher log view --cycle 3f2a events.ulog
package main

import (
	"fmt"
	"os"
)

// Version is set by build flags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
