package address

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"regexp"
	"strings"
)

// ErrInvalid is returned for strings that are not an IP, domain or MAC.
var ErrInvalid = errors.New("invalid address")

var (
	macPattern    = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
	domainPattern = regexp.MustCompile(`^(?i:[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)(\.(?i:[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?))*\.?$`)
)

// IsMAC reports whether s is a MAC address.
func IsMAC(s string) bool { return macPattern.MatchString(s) }

// IsIP reports whether s is an IP literal, optionally zoned.
func IsIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

// IsDomain reports whether s is a syntactically valid host name that is not
// an IP literal.
func IsDomain(s string) bool {
	return len(s) <= 253 && !IsIP(s) && !IsMAC(s) && !allDigitsAndDots(s) && domainPattern.MatchString(s)
}

// Normalize returns the stored form of addr.
func Normalize(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	switch {
	case IsMAC(addr):
		return strings.ToUpper(strings.ReplaceAll(addr, "-", ":")), nil
	case IsIP(addr):
		ip, _ := netip.ParseAddr(addr)
		return strings.ToLower(ip.String()), nil
	case IsDomain(addr):
		return strings.ToLower(addr), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalid, addr)
}

// NormalizeAll normalizes and deduplicates addrs, keeping first occurrences.
func NormalizeAll(addrs []string) ([]string, error) {
	out := make([]string, 0, len(addrs))
	seen := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		n, err := Normalize(a)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// LinkLocalFromMAC returns the EUI-64 derived fe80::/64 address of mac.
func LinkLocalFromMAC(mac net.HardwareAddr) (netip.Addr, error) {
	if len(mac) != 6 {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrInvalid, mac)
	}
	var b [16]byte
	b[0], b[1] = 0xfe, 0x80
	b[8] = mac[0] ^ 0x02
	b[9], b[10] = mac[1], mac[2]
	b[11], b[12] = 0xff, 0xfe
	b[13], b[14], b[15] = mac[3], mac[4], mac[5]
	return netip.AddrFrom16(b), nil
}

func allDigitsAndDots(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
