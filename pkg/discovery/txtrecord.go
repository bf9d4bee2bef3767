package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodePortalTXT creates TXT records for a portal advertisement.
func EncodePortalTXT(info *PortalInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	path := info.Path
	if path == "" {
		path = "/"
	}
	txt[TXTKeyPath] = path
	txt[TXTKeyVersion] = TXTVersion

	if info.CycleID != "" {
		txt[TXTKeyCycleID] = info.CycleID
	}

	return txt
}

// DecodePortalTXT parses TXT records of a portal advertisement. Instance and
// Port are not part of the TXT data and stay zero.
func DecodePortalTXT(txt TXTRecordMap) (*PortalInfo, error) {
	path, ok := txt[TXTKeyPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyPath)
	}
	if _, ok := txt[TXTKeyVersion]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	return &PortalInfo{Path: path, CycleID: txt[TXTKeyCycleID]}, nil
}

// TXTRecordsToStrings converts a TXT map to "key=value" strings, sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// StringsToTXTRecords parses "key=value" strings. Entries without '=' are
// kept as keys with an empty value.
func StringsToTXTRecords(records []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		txt[k] = v
	}
	return txt
}
