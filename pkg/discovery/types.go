package discovery

import (
	"context"
	"errors"
	"time"
)

// Service constants.
const (
	// ServiceTypePortal is the DNS-SD service type of the setup portal.
	ServiceTypePortal = "_http._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is used when PortalInfo.Port is zero.
	DefaultPort = 80

	// TXTVersion is the TXT record format version.
	TXTVersion = "1"
)

// TXT record keys.
const (
	TXTKeyPath    = "path"
	TXTKeyVersion = "v"
	TXTKeyCycleID = "id"
)

// Discovery errors.
var (
	ErrMissingRequired = errors.New("missing required TXT record")
	ErrInvalidInstance = errors.New("invalid instance name")
)

// MaxInstanceLen is the DNS-SD limit for an instance label, in bytes.
const MaxInstanceLen = 63

// PortalInfo describes the advertised portal.
type PortalInfo struct {
	// Instance is the service instance name, normally the setup SSID.
	Instance string

	// Port the portal listens on.
	Port uint16

	// Path of the portal page.
	Path string

	// CycleID tags the advertisement with the provisioning cycle (optional).
	CycleID string
}

// Validate checks that info can be registered.
func (i *PortalInfo) Validate() error {
	if i.Instance == "" || len(i.Instance) > MaxInstanceLen {
		return ErrInvalidInstance
	}
	return nil
}

// AdvertiserConfig configures an mDNS advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertisement to one network interface
	// (empty means all).
	Interface string

	// TTL of the announced records (zero uses the library default).
	TTL time.Duration
}

// Advertiser announces the portal while it is running.
type Advertiser interface {
	// AdvertisePortal starts (or replaces) the portal advertisement.
	AdvertisePortal(ctx context.Context, info *PortalInfo) error

	// StopPortal withdraws the advertisement. Safe to call when idle.
	StopPortal() error
}
