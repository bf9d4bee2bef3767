// Package sim provides an in-memory radio for tests, demos and the
// interactive console.
//
// The simulated radio follows the same rules as real hardware where they
// matter to bring-up: readiness flags turn true only after configurable
// latencies, scanning needs a client-capable mode, and association only
// succeeds for networks in the Known table with the matching password. Time
// comes from a bringup.Clock so tests can run the full cycle on a fake clock.
package sim
