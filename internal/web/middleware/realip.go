package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/transitdir/internal/core"
)

// TrustedRealIP rewrites RemoteAddr from X-Real-IP or the first
// X-Forwarded-For entry, but only for connections from a trusted proxy
// CIDR. Other requests keep the connection address. The resulting address
// is also stored with core.ContextWithRemoteAddr for import logging.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	trusted := parseTrustedNets(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isTrusted(ExtractIP(r.RemoteAddr), trusted) {
				if ip := forwardedClient(r.Header); ip != nil {
					r.RemoteAddr = ip.String()
				}
			}

			ctx := core.ContextWithRemoteAddr(r.Context(), r.RemoteAddr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseTrustedNets parses CIDRs and bare addresses. Bare addresses become
// single-host networks; anything else is logged and skipped.
func parseTrustedNets(cidrs []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, network)
			continue
		}
		ip := net.ParseIP(cidr)
		if ip == nil {
			slog.Warn("realip: invalid trusted proxy CIDR, skipping", "cidr", cidr)
			continue
		}
		bits := 128
		if ip.To4() != nil {
			bits = 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// forwardedClient returns the client address a proxy reported, preferring
// X-Real-IP. For X-Forwarded-For the first entry is the original client.
func forwardedClient(h http.Header) net.IP {
	if rip := h.Get("X-Real-IP"); rip != "" {
		return net.ParseIP(strings.TrimSpace(rip))
	}
	xff := h.Get("X-Forwarded-For")
	if xff == "" {
		return nil
	}
	first, _, _ := strings.Cut(xff, ",")
	return net.ParseIP(strings.TrimSpace(first))
}

// ExtractIP returns the IP in a host:port string or plain address, or nil.
func ExtractIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
