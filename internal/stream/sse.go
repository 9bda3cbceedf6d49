// Package stream implements Server-Sent Events (SSE) streaming of the
// tracker's live position. Clients connect via GET /api/v1/stream/now
// and receive the nearest-epoch-derived state on a fixed interval.
//
// SSE message format:
//
//	data: {"type":"position","epoch":{...},"speed":7.66,"location":{...}}\n\n
//
// Keep-alive comments (:\n\n) are sent between positions to prevent
// intermediary timeouts. All dataset reads go through the store, so
// streaming never fetches upstream more often than the cache TTL
// allows.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/star/isstrack/internal/httputil"
	"github.com/star/isstrack/internal/locate"
	"github.com/star/isstrack/internal/metrics"
	"github.com/star/isstrack/internal/oem"
)

// Config holds streaming configuration.
type Config struct {
	Interval           time.Duration // Position emit period (default: 5s).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
}

// Handler manages SSE streaming connections.
type Handler struct {
	store    *oem.Store
	resolver *locate.Resolver
	config   Config
	limiter  *streamLimiter
	logger   *slog.Logger

	nowFunc func() time.Time
}

// NewHandler creates a new streaming handler.
func NewHandler(store *oem.Store, resolver *locate.Resolver, config Config, logger *slog.Logger) *Handler {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		store:    store,
		resolver: resolver,
		config:   config,
		limiter:  newStreamLimiter(config.MaxConcurrentPerIP),
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// positionEvent is one SSE payload.
type positionEvent struct {
	Type     string           `json:"type"`
	Epoch    *oem.StateVector `json:"epoch,omitempty"`
	Speed    float64          `json:"speed,omitempty"`
	Location *locate.Location `json:"location,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// HandleNow serves the SSE live position stream.
// GET /api/v1/stream/now
func (h *Handler) HandleNow(w http.ResponseWriter, r *http.Request) {
	ip := httputil.ClientIP(r, false)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"component", "stream",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}
	defer h.limiter.release(ip)

	flusher, ok := w.(http.Flusher)
	if !ok {
		metrics.IncStreamErrors("no_flush")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	metrics.IncStreamsActive()
	defer metrics.DecStreamsActive()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	start := time.Now()
	h.logger.Info("stream connected", "component", "stream", "remote_ip", ip)
	defer func() {
		h.logger.Info("stream disconnected",
			"component", "stream",
			"remote_ip", ip,
			"duration_s", time.Since(start).Seconds(),
		)
	}()

	// First position immediately, then on the interval.
	h.emit(w, flusher, r)

	ticker := time.NewTicker(h.config.Interval)
	defer ticker.Stop()
	keepalive := time.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.emit(w, flusher, r)
		case <-keepalive.C:
			fmt.Fprint(w, ":\n\n")
			flusher.Flush()
		}
	}
}

// emit writes one position event. Upstream failure becomes an error
// event rather than a dropped connection; the next tick retries
// through the cache.
func (h *Handler) emit(w http.ResponseWriter, flusher http.Flusher, r *http.Request) {
	event := positionEvent{Type: "position"}

	ds, err := h.store.Current(r.Context())
	if err != nil {
		metrics.IncStreamErrors("data_unavailable")
		event = positionEvent{Type: "error", Error: "ephemeris data unavailable"}
	} else {
		sv, err := ds.Nearest(h.nowFunc().UTC())
		if err != nil {
			metrics.IncStreamErrors("empty_dataset")
			event = positionEvent{Type: "error", Error: "ephemeris data unavailable"}
		} else {
			loc := h.resolver.Resolve(r.Context(), sv)
			event.Epoch = sv
			event.Speed = sv.Speed()
			event.Location = &loc
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("stream payload marshal failed", "component", "stream", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
