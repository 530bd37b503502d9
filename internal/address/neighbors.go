package address

import (
	"bufio"
	"bytes"
	"net"
	"net/netip"
	"os"
	"strings"
)

// NeighborTable maps link-layer addresses to IPs seen on the local network.
type NeighborTable interface {
	Lookup(mac net.HardwareAddr) []netip.Addr
}

// ProcNeighborTable reads the kernel ARP cache in /proc/net/arp format.
type ProcNeighborTable struct {
	Path string
}

// Lookup returns the complete entries for mac. Read errors yield no entries.
func (t ProcNeighborTable) Lookup(mac net.HardwareAddr) []netip.Addr {
	path := t.Path
	if path == "" {
		path = "/proc/net/arp"
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return parseARP(b, mac)
}

func parseARP(b []byte, mac net.HardwareAddr) []netip.Addr {
	var out []netip.Addr
	sc := bufio.NewScanner(bytes.NewReader(b))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		// 0x0 marks an incomplete entry.
		if fields[2] == "0x0" {
			continue
		}
		hw, err := net.ParseMAC(fields[3])
		if err != nil || !bytes.Equal(hw, mac) {
			continue
		}
		ip, err := netip.ParseAddr(fields[0])
		if err != nil {
			continue
		}
		out = append(out, ip)
	}
	return out
}
