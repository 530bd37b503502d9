// Package address validates contact addresses and expands them into dialable
// host:port candidates.
//
// A contact address is one of
//
//   - an IP literal (stored in canonical lower-case form),
//   - a domain name (stored lower-case, resolved at dial time),
//   - a MAC address (stored upper-case with colons), which expands to the
//     EUI-64 IPv6 link-local address on every usable interface and, when
//     enabled, to the IPs the kernel neighbor table holds for it.
package address
