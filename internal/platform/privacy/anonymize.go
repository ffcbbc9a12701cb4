// Package privacy provides utilities for keeping personally identifiable
// information out of logs and audit trails.
package privacy

import (
	"fmt"
	"net"
)

// AnonymizeIP truncates an IP address to remove the host-identifying portion
// before it is written to logs or audit events. Client identifiers used for
// rate limiting are typically raw IPs; log lines must never carry them whole.
//
// For IPv4 addresses, the last octet is zeroed (e.g., "192.168.1.47" ->
// "192.168.1.0"), masking to a /24 network. For IPv6 addresses, only the /48
// prefix is kept (e.g., "2001:db8:85a3::8a2e:370:7334" -> "2001:0db8:85a3::").
//
// Returns "invalid" for unparseable addresses and "unknown" for empty input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	// IPv4, including IPv4-mapped IPv6
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	// IPv6: keep only the first 6 bytes (/48 prefix)
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}
