// Package wpa drives a Linux wireless interface through wpa_supplicant,
// hostapd and iw.
//
// Apply renders wpa_supplicant.conf and hostapd.conf into RunDir. Files are
// written to a temporary file and renamed into place, so a daemon never reads
// a half-written configuration. Passphrases are stored as the derived 256-bit
// PSK, not in clear.
//
// Readiness comes from the kernel: IsStarted and IsConnected read
// /sys/class/net/<iface>/operstate, IPAssigned inspects the interface
// addresses. Mixed mode runs the setup access point on a virtual interface
// (APInterface) created next to the client interface.
package wpa
