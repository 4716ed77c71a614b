package httpkit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client's real IP, preferring X-Forwarded-For /
// X-Real-IP over RemoteAddr. Only trust these headers when the service sits
// behind infrastructure that strips/overwrites them before they reach us
// (gateway is the only public entrypoint; everything downstream of it is).
func ClientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, p := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
				return ip
			}
		}
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}

	return net.ParseIP(r.RemoteAddr)
}
