package wpa

import (
	"bufio"
	"bytes"
	"slices"
	"strconv"
	"strings"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/wifi"
)

// ParseScan parses `iw dev <iface> scan` output. Results are ordered by
// signal strength, strongest first.
func ParseScan(out []byte) []wifi.AccessPointInfo {
	var (
		aps     []wifi.AccessPointInfo
		cur     *wifi.AccessPointInfo
		privacy bool
		rsn     bool
		wpa     bool
		inRSN   bool
	)

	flush := func() {
		if cur == nil {
			return
		}
		switch {
		case cur.Auth != wifi.AuthUnknown:
		case rsn:
			cur.Auth = wifi.AuthWPA2Personal
		case wpa:
			cur.Auth = wifi.AuthWPA
		case privacy:
			cur.Auth = wifi.AuthWEP
		default:
			cur.Auth = wifi.AuthOpen
		}
		aps = append(aps, *cur)
		cur = nil
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()

		if strings.HasPrefix(line, "BSS ") {
			flush()
			bssid, _, _ := strings.Cut(strings.TrimPrefix(line, "BSS "), "(")
			cur = &wifi.AccessPointInfo{BSSID: strings.TrimSpace(bssid)}
			privacy, rsn, wpa, inRSN = false, false, false, false
			continue
		}
		if cur == nil {
			continue
		}

		field := strings.TrimSpace(line)
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if inRSN && indent <= 1 {
			inRSN = false
		}

		switch {
		case strings.HasPrefix(field, "SSID:"):
			cur.SSID = strings.TrimSpace(strings.TrimPrefix(field, "SSID:"))
		case strings.HasPrefix(field, "signal:"):
			v := strings.Fields(strings.TrimPrefix(field, "signal:"))
			if len(v) > 0 {
				if f, err := strconv.ParseFloat(v[0], 64); err == nil {
					cur.Signal = int8(max(min(f, 127), -128))
				}
			}
		case strings.HasPrefix(field, "DS Parameter set: channel"):
			v := strings.TrimSpace(strings.TrimPrefix(field, "DS Parameter set: channel"))
			if ch, err := strconv.ParseUint(v, 10, 8); err == nil {
				cur.Channel = uint8(ch)
			}
		case strings.HasPrefix(field, "capability:"):
			privacy = strings.Contains(field, "Privacy")
		case strings.HasPrefix(field, "RSN:"):
			rsn, inRSN = true, true
		case strings.HasPrefix(field, "WPA:"):
			wpa = true
		case inRSN && strings.HasPrefix(field, "* Authentication suites:"):
			suites := strings.TrimPrefix(field, "* Authentication suites:")
			switch {
			case strings.Contains(suites, "IEEE 802.1X"):
				cur.Auth = wifi.AuthWPA2Enterprise
			case strings.Contains(suites, "SAE") && !strings.Contains(suites, "PSK"):
				cur.Auth = wifi.AuthWPA3Personal
			}
		}
	}
	flush()

	slices.SortStableFunc(aps, func(a, b wifi.AccessPointInfo) int {
		return int(b.Signal) - int(a.Signal)
	})
	return aps
}
