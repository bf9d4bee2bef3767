// Package discovery advertises the setup portal over mDNS/DNS-SD.
//
// While the device hosts its setup access point it registers an
// _http._tcp service so phones and laptops that support DNS-SD browsing can
// open the portal without typing an address.
//
// # Instance name
//
// The instance name is the setup network name (for example
// "UTC-Fetcher-Setup"), so the advertised service and the access point a user
// just joined carry the same label.
//
// # TXT records
//
//   - path: portal page path ("/")
//   - v: TXT format version ("1")
//   - id: provisioning cycle ID, when known
//
// Advertisement is optional. A failure to register is logged by the caller and
// never stops the portal.
package discovery
