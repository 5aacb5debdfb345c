package handler

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves a best-effort client identifier for rate limiting. The
// chain: an explicit client_ip parameter (set by trusted intermediaries),
// proxy headers, then the connection's remote address. An empty result
// disables rate limiting for the request rather than failing it.
func ClientIP(r *http.Request, params map[string]string) string {
	if ip := params["client_ip"]; ip != "" {
		return ip
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
