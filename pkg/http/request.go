package http

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClientKey buckets requests whose network identity cannot be
// determined at all. Such requests share a single rate-limit record.
const UnknownClientKey = "unknown"

// ClientKeyConfig controls how the rate-limit bucket key is derived.
type ClientKeyConfig struct {
	TrustedProxies []string // CIDR ranges allowed to assert forwarded headers
}

// ClientKey derives the rate-limit bucket key for a request: a forwarded
// address when the request arrives through a trusted proxy, else the
// direct connection address, else the shared "unknown" bucket.
//
// Forwarded headers are honored only from trusted proxies so a client
// cannot change its key by spoofing X-Forwarded-For.
func ClientKey(r *http.Request, config *ClientKeyConfig) string {
	remoteIP := remoteAddr(r)

	if config != nil && remoteIP != UnknownClientKey && isTrustedProxy(remoteIP, config.TrustedProxies) {
		// X-Forwarded-For may hold a chain; the first valid entry is
		// the originating client.
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, candidate := range strings.Split(xff, ",") {
				candidate = strings.TrimSpace(candidate)
				if net.ParseIP(candidate) != nil {
					return candidate
				}
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return remoteIP
}

// remoteAddr extracts the connection address, dropping the port.
func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return UnknownClientKey
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func isTrustedProxy(ip string, trustedProxies []string) bool {
	if len(trustedProxies) == 0 {
		return false
	}

	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue // skip invalid CIDR ranges
		}
		if ipNet.Contains(clientIP) {
			return true
		}
	}

	return false
}
