package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeRoute(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/epochs", "/epochs"},
		{"/now", "/now"},
		{"/header", "/header"},
		{"/api/v1/stream/now", "/api/v1/stream/now"},
		{"/epochs/42", "/epochs/{epoch}"},
		{"/epochs/2024-052T12:00:00.000Z", "/epochs/{epoch}"},
		{"/epochs/42/speed", "/epochs/{epoch}/speed"},
		{"/epochs/42/location", "/epochs/{epoch}/location"},
		{"/epochs/42/bogus/deep", "other"},
		{"/admin", "other"},
		{"/../../etc/passwd", "other"},
	}
	for _, tc := range cases {
		if got := normalizeRoute(tc.path); got != tc.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestMiddlewarePreservesFlusher(t *testing.T) {
	var sawFlusher bool
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawFlusher = w.(http.Flusher)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/now", nil))

	if !sawFlusher {
		t.Error("wrapped writer should still satisfy http.Flusher")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want passthrough", rec.Code)
	}
}
