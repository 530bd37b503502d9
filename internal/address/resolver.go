package address

import (
	"net"
	"net/netip"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/tunermason/SC/internal/domain"
)

// Resolver expands contacts into ordered host:port candidates.
type Resolver struct {
	port      int
	neighbors NeighborTable
	zones     func() []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNeighborTable replaces the kernel neighbor table.
func WithNeighborTable(t NeighborTable) Option { return func(r *Resolver) { r.neighbors = t } }

// WithLinkLocalZones replaces interface discovery for MAC expansion.
func WithLinkLocalZones(f func() []string) Option { return func(r *Resolver) { r.zones = f } }

// New returns a resolver that targets port.
func New(port int, opts ...Option) *Resolver {
	r := &Resolver{port: port, neighbors: ProcNeighborTable{}, zones: linkLocalZones}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Candidates returns the dial targets for c.
//
// The last address that worked comes first, then the contact's addresses in
// their configured order. Duplicates are dropped.
func (r *Resolver) Candidates(c domain.Contact, useNeighborTable bool) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(hostport string) {
		if _, dup := seen[hostport]; dup {
			return
		}
		seen[hostport] = struct{}{}
		out = append(out, hostport)
	}

	if c.LastWorkingAddress != "" {
		add(c.LastWorkingAddress)
	}

	port := strconv.Itoa(r.port)
	for _, a := range c.Addresses {
		switch {
		case IsMAC(a):
			mac, err := net.ParseMAC(a)
			if err != nil {
				continue
			}
			for _, ip := range r.expandMAC(mac, useNeighborTable) {
				add(net.JoinHostPort(ip.String(), port))
			}
		case IsIP(a), IsDomain(a):
			add(net.JoinHostPort(a, port))
		default:
			logrus.WithFields(logrus.Fields{
				"function": "Candidates",
				"address":  a,
			}).Debug("Skipping unparseable address")
		}
	}
	return out
}

func (r *Resolver) expandMAC(mac net.HardwareAddr, useNeighborTable bool) []netip.Addr {
	var out []netip.Addr
	if ll, err := LinkLocalFromMAC(mac); err == nil {
		for _, zone := range r.zones() {
			out = append(out, ll.WithZone(zone))
		}
	}
	if useNeighborTable && r.neighbors != nil {
		out = append(out, r.neighbors.Lookup(mac)...)
	}
	return out
}

// linkLocalZones lists up, non-loopback interfaces that carry an IPv6
// link-local address.
func linkLocalZones() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var zones []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipn, ok := a.(*net.IPNet)
			if ok && ipn.IP.To4() == nil && ipn.IP.IsLinkLocalUnicast() {
				zones = append(zones, iface.Name)
				break
			}
		}
	}
	return zones
}

var _ domain.AddressResolver = (*Resolver)(nil)
