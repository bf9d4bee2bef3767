// Package credentials defines the network credentials a user submits through
// the setup portal.
//
// A Credentials value is immutable and carries the network name (SSID, at most
// 32 bytes) and the secret (WPA passphrase, at most 64 bytes). Both limits are
// in bytes because that is how the radio stack stores them; a name made of
// multi-byte characters reaches the limit sooner than its rune count suggests.
//
// # Form Encoding
//
// The portal page and the submission handler share one encoding:
//
//	name=<network>&secret=<value>
//
// URL-encoded as application/x-www-form-urlencoded. ParseForm and Encode are
// exact inverses for every valid value, including names that need
// percent-encoding.
//
// Credentials are never persisted. A value lives for one provisioning cycle
// and is dropped once converted into a client configuration.
package credentials
