package health

import "net/http"

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Loader reports whether ephemeris data has been loaded at least once.
type Loader interface {
	Loaded() bool
}

// Readyz returns a handler that reports 200 "ready\n" once a dataset
// has been cached, and 503 until then. A cleared cache after a failed
// refresh reports not-ready again.
func Readyz(loader Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if !loader.Loaded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("no ephemeris data loaded\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
	}
}
