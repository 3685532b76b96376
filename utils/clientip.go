package utils

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the originating client address from a request.
// Priority order: first entry of X-Forwarded-For, then X-Real-IP, then the
// connection's remote address. Returns "unknown" when nothing usable exists.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}
