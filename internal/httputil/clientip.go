// Package httputil holds small HTTP request helpers shared by the API
// and stream layers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client address for a request.
//
// With trustProxy false only RemoteAddr is consulted. With trustProxy
// true the X-Forwarded-For chain (leftmost entry) and X-Real-IP take
// precedence; enable that only behind a reverse proxy that strips
// client-supplied copies of those headers, since they are otherwise
// trivially spoofable.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if chain := r.Header.Get("X-Forwarded-For"); chain != "" {
			first, _, _ := strings.Cut(chain, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
			return real
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests.
		return r.RemoteAddr
	}
	return host
}
