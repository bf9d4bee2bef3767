package wifi

import (
	"context"
	"fmt"
)

// AuthMethod identifies the security of a network.
type AuthMethod uint8

const (
	AuthUnknown AuthMethod = iota
	AuthOpen
	AuthWEP
	AuthWPA
	AuthWPA2Personal
	AuthWPA3Personal
	AuthWPA2Enterprise
)

// String returns a human-readable auth method name.
func (a AuthMethod) String() string {
	switch a {
	case AuthOpen:
		return "OPEN"
	case AuthWEP:
		return "WEP"
	case AuthWPA:
		return "WPA"
	case AuthWPA2Personal:
		return "WPA2-PSK"
	case AuthWPA3Personal:
		return "WPA3-SAE"
	case AuthWPA2Enterprise:
		return "WPA2-EAP"
	default:
		return "UNKNOWN"
	}
}

// AccessPointInfo describes one network seen during a scan.
// Only SSID is consumed by the provisioning core.
type AccessPointInfo struct {
	SSID    string
	BSSID   string
	Signal  int8 // dBm
	Channel uint8
	Auth    AuthMethod
}

// ClientConfig configures the station (client) side of the radio.
type ClientConfig struct {
	SSID     string
	Password string
	Auth     AuthMethod
}

// AccessPointConfig configures the access point side of the radio.
type AccessPointConfig struct {
	SSID           string
	Password       string
	Channel        uint8
	Auth           AuthMethod
	MaxConnections uint8
}

// Mode is the radio operating mode implied by a Configuration.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeClient
	ModeAccessPoint
	ModeMixed
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "NONE"
	case ModeClient:
		return "CLIENT"
	case ModeAccessPoint:
		return "ACCESS_POINT"
	case ModeMixed:
		return "MIXED"
	default:
		return "UNKNOWN"
	}
}

// Configuration is what a Radio applies. Nil parts are disabled.
type Configuration struct {
	Client      *ClientConfig
	AccessPoint *AccessPointConfig
}

// Mode returns the operating mode.
func (c Configuration) Mode() Mode {
	switch {
	case c.Client != nil && c.AccessPoint != nil:
		return ModeMixed
	case c.Client != nil:
		return ModeClient
	case c.AccessPoint != nil:
		return ModeAccessPoint
	default:
		return ModeNone
	}
}

// CanScan reports whether a radio in this configuration can scan.
func (c Configuration) CanScan() bool {
	return c.Client != nil
}

// HasTarget reports whether the client part names a network to join.
func (c Configuration) HasTarget() bool {
	return c.Client != nil && c.Client.SSID != ""
}

// String describes the configuration without secrets.
func (c Configuration) String() string {
	switch c.Mode() {
	case ModeClient:
		return fmt.Sprintf("client(ssid=%q)", c.Client.SSID)
	case ModeAccessPoint:
		return fmt.Sprintf("ap(ssid=%q)", c.AccessPoint.SSID)
	case ModeMixed:
		return fmt.Sprintf("mixed(client=%q, ap=%q)", c.Client.SSID, c.AccessPoint.SSID)
	default:
		return "none"
	}
}

// Scanner lists nearby networks. A scan takes on the order of seconds.
type Scanner interface {
	Scan(ctx context.Context) ([]AccessPointInfo, error)
}

// Radio is the network configuration capability.
//
// Apply, Start and Connect are commands; their effect becomes observable
// through the status queries after some latency.
type Radio interface {
	Scanner

	// Apply replaces the radio configuration.
	Apply(ctx context.Context, cfg Configuration) error

	// Start brings the interface up with the applied configuration.
	Start(ctx context.Context) error

	// Connect starts association with the configured client network.
	Connect(ctx context.Context) error

	// IsStarted reports whether the interface is up.
	IsStarted() bool

	// IsConnected reports whether the client link is associated.
	IsConnected() bool

	// IPAssigned reports whether the client interface holds a usable
	// (non-unspecified) address.
	IPAssigned() bool
}
