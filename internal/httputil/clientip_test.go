package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		trustProxy bool
		want       string
	}{
		{"remote addr", "10.0.0.1:4567", "", "", false, "10.0.0.1"},
		{"remote addr no port", "10.0.0.1", "", "", false, "10.0.0.1"},
		{"xff ignored untrusted", "10.0.0.1:4567", "203.0.113.9", "", false, "10.0.0.1"},
		{"xff trusted", "10.0.0.1:4567", "203.0.113.9", "", true, "203.0.113.9"},
		{"xff chain takes first", "10.0.0.1:4567", "203.0.113.9, 198.51.100.2", "", true, "203.0.113.9"},
		{"xri fallback", "10.0.0.1:4567", "", "203.0.113.9", true, "203.0.113.9"},
		{"ipv6 remote", "[::1]:4567", "", "", false, "::1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}
			if got := ClientIP(req, tc.trustProxy); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
