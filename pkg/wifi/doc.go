// Package wifi defines the radio capabilities the provisioning core drives.
//
// The radio and its network stack keep mutable, singleton-like state: the
// current mode, whether the interface is started, whether the link is
// associated, whether an address was assigned. The core never reaches into
// that state directly. It talks to a Radio, which a driver implements
// (pkg/radio/wpa on Linux, pkg/radio/sim for tests and demos).
//
// # Modes
//
// A Configuration holds an optional client part and an optional access point
// part. Client-only configurations associate with a network, access-point-only
// configurations host one, and mixed configurations do both. Scanning requires
// a client part: a radio in pure access point mode cannot scan.
package wifi
