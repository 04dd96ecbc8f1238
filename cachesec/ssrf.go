package cachesec

import (
	"encoding/json"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// internalCIDRs are the ranges a poisoned upstream could use to point cached
// consumers at internal infrastructure. A compromised registry response is
// the SSRF vector here, not the fetch itself.
var internalCIDRs = mustParseCIDRs(
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

var ipv4Pattern = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, ipNet, err := net.ParseCIDR(c)
		if err != nil {
			panic("BUG: built-in CIDR failed to parse: " + c)
		}
		nets = append(nets, ipNet)
	}
	return nets
}

// isInternalIP checks ip against the internal ranges. IPv4-mapped IPv6
// addresses (::ffff:127.0.0.1) are normalized to their 4-byte form first so
// they match IPv4 CIDRs.
func isInternalIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	for _, cidr := range internalCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// scanForSSRFIndicators walks every string in the payload looking for
// addresses in private, loopback, or link-local ranges, and for URLs whose
// host is such an address or a localhost alias. It returns the first
// offending token, or "" when the payload is clean.
func scanForSSRFIndicators(data json.RawMessage) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return ""
	}
	return scanValue(v)
}

func scanValue(v any) string {
	switch val := v.(type) {
	case string:
		return scanString(val)
	case map[string]any:
		for _, item := range val {
			if hit := scanValue(item); hit != "" {
				return hit
			}
		}
	case []any:
		for _, item := range val {
			if hit := scanValue(item); hit != "" {
				return hit
			}
		}
	}
	return ""
}

func scanString(s string) string {
	// Bare IP literals, including inside larger text.
	for _, tok := range ipv4Pattern.FindAllString(s, -1) {
		if ip := net.ParseIP(tok); ip != nil && isInternalIP(ip) {
			return tok
		}
	}
	// Whole-string IPv6 literal.
	if ip := net.ParseIP(strings.TrimSpace(s)); ip != nil && isInternalIP(ip) {
		return s
	}
	// URLs with an internal host. Handles bracketed IPv6 and localhost
	// aliases that a bare-IP scan misses.
	if strings.Contains(s, "://") {
		if u, err := url.Parse(strings.TrimSpace(s)); err == nil {
			host := strings.ToLower(u.Hostname())
			switch {
			case host == "localhost", strings.HasSuffix(host, ".localhost"),
				strings.HasSuffix(host, ".internal"), strings.HasSuffix(host, ".local"):
				return s
			default:
				if ip := net.ParseIP(host); ip != nil && isInternalIP(ip) {
					return s
				}
			}
		}
	}
	return ""
}
