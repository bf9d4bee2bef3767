package wpa

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/credentials"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

// Configuration file names inside RunDir.
const (
	SupplicantConf = "wpa_supplicant.conf"
	HostapdConf    = "hostapd.conf"
)

const (
	maxPassphraseLen = 63
	rawPSKLen        = 64
)

// ErrPassphrase: a WPA secret that is neither an 8..63 character passphrase
// nor a 64 hex digit raw PSK.
var ErrPassphrase = errors.New("WPA secret must be an 8 to 63 character passphrase or 64 hex digits")

// RenderSupplicant returns a wpa_supplicant.conf for c. A nil c or an empty
// SSID yields a configuration with no networks, which still allows scanning.
func RenderSupplicant(ctrlDir string, c *wifi.ClientConfig) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("# Automatically generated\n")
	fmt.Fprintf(&b, "ctrl_interface=%s\n", ctrlDir)
	b.WriteString("update_config=0\n")

	if c == nil || c.SSID == "" {
		return b.Bytes(), nil
	}

	b.WriteString("network={\n")
	fmt.Fprintf(&b, "\tssid=%s\n", hex.EncodeToString([]byte(c.SSID)))
	b.WriteString("\tscan_ssid=1\n")

	if c.Password == "" || c.Auth == wifi.AuthOpen {
		b.WriteString("\tkey_mgmt=NONE\n")
	} else {
		psk, err := derivePSK(c.SSID, c.Password)
		if err != nil {
			return nil, err
		}
		b.WriteString("\tkey_mgmt=WPA-PSK\n")
		fmt.Fprintf(&b, "\tpsk=%s\n", psk)
	}
	b.WriteString("}\n")
	return b.Bytes(), nil
}

// RenderHostapd returns a hostapd.conf for the access point on iface.
func RenderHostapd(iface string, ap *wifi.AccessPointConfig) ([]byte, error) {
	channel := ap.Channel
	if channel == 0 {
		channel = 6
	}

	var b bytes.Buffer
	b.WriteString("# Automatically generated\n")
	fmt.Fprintf(&b, "interface=%s\n", iface)
	b.WriteString("driver=nl80211\n")
	fmt.Fprintf(&b, "ssid2=%s\n", hex.EncodeToString([]byte(ap.SSID)))
	b.WriteString("hw_mode=g\n")
	fmt.Fprintf(&b, "channel=%d\n", channel)
	if ap.MaxConnections > 0 {
		fmt.Fprintf(&b, "max_num_sta=%d\n", ap.MaxConnections)
	}

	if ap.Password != "" && ap.Auth != wifi.AuthOpen {
		psk, err := derivePSK(ap.SSID, ap.Password)
		if err != nil {
			return nil, err
		}
		b.WriteString("wpa=2\n")
		b.WriteString("wpa_key_mgmt=WPA-PSK\n")
		b.WriteString("rsn_pairwise=CCMP\n")
		fmt.Fprintf(&b, "wpa_psk=%s\n", psk)
	}
	return b.Bytes(), nil
}

// derivePSK returns the hex PSK for passphrase. A 64 hex digit secret is
// already a raw PSK and is used as is.
func derivePSK(ssid, passphrase string) (string, error) {
	if len(passphrase) == rawPSKLen {
		if _, err := hex.DecodeString(passphrase); err == nil {
			return strings.ToLower(passphrase), nil
		}
		return "", ErrPassphrase
	}
	if len(passphrase) < credentials.MinPassphraseLen || len(passphrase) > maxPassphraseLen {
		return "", ErrPassphrase
	}
	creds, err := credentials.New(ssid, passphrase)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(creds.PSK()), nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp.Name(), path, err)
	}
	return nil
}
