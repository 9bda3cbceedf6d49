package oem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/isstrack/internal/metrics"
)

// TTL is the freshness window for a fetched dataset. Once elapsed, the
// next request triggers a refetch regardless of whether the old data
// would still be serviceable.
const TTL = 15 * time.Minute

// ErrUnavailable reports that no dataset could be served: the upstream
// fetch or parse failed and the cache was cleared.
var ErrUnavailable = errors.New("ephemeris data stale or unavailable")

// entry is one atomically-replaced cache generation: a dataset and the
// instant it was fetched, always replaced or cleared as a unit.
type entry struct {
	dataset   *Dataset
	fetchedAt time.Time
}

// Store owns the cached ephemeris dataset and its refresh policy.
//
// Refresh is lazy: Current serves the cached dataset while it is
// younger than TTL and performs one synchronous fetch-and-parse
// otherwise. The check-then-act sequence runs under a mutex so
// concurrent requests never race on the refetch decision; the entry
// itself lives in an atomic pointer so observers (health, metrics) can
// read it without taking the lock.
type Store struct {
	entry   atomic.Pointer[entry]
	mu      sync.Mutex // serializes the TTL check and refresh
	fetcher *Fetcher
	sidecar bool
	logger  *slog.Logger

	nowFunc func() time.Time
}

// NewStore creates an empty Store backed by the given fetcher. When
// sidecar is true, parsed datasets retain the OEM header, metadata,
// and comments.
func NewStore(fetcher *Fetcher, sidecar bool, logger *slog.Logger) *Store {
	return &Store{
		fetcher: fetcher,
		sidecar: sidecar,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// SetNowFunc overrides the clock used for TTL checks and refresh
// stamps. Tests use this; production code never calls it.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.nowFunc = now
}

// Current returns the cached dataset if it is still fresh, refreshing
// it from upstream otherwise. On a failed refresh the cache is cleared
// wholesale and ErrUnavailable is returned so a subsequent call retries
// rather than serving a partially-built object.
func (s *Store) Current(ctx context.Context) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc().UTC()
	if e := s.entry.Load(); e != nil && now.Sub(e.fetchedAt) < TTL {
		return e.dataset, nil
	}

	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.clear()
		s.logger.Error("OEM fetch failed", "component", "oem", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ds, err := Parse(raw, s.sidecar)
	if err != nil {
		s.clear()
		s.logger.Error("OEM parse failed", "component", "oem", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.entry.Store(&entry{dataset: ds, fetchedAt: now})
	metrics.IncDatasetRefresh("success")
	metrics.SetDatasetSize(ds.Len())
	s.logger.Info("OEM dataset refreshed",
		"component", "oem",
		"state_vectors", ds.Len(),
		"source_url", s.fetcher.SourceURL(),
	)
	return ds, nil
}

// clear drops the cache entry wholesale after a failed refresh.
func (s *Store) clear() {
	s.entry.Store(nil)
	metrics.IncDatasetRefresh("failure")
	metrics.SetDatasetSize(0)
}

// Loaded reports whether a dataset is currently cached. Lock-free;
// used by readiness checks.
func (s *Store) Loaded() bool {
	return s.entry.Load() != nil
}

// AgeSeconds returns the age of the cached dataset in seconds, or -1
// if the cache is empty. Lock-free; used by the metrics ticker.
func (s *Store) AgeSeconds() float64 {
	e := s.entry.Load()
	if e == nil {
		return -1
	}
	return s.nowFunc().UTC().Sub(e.fetchedAt).Seconds()
}

// Size returns the number of cached state vectors, or 0 if the cache
// is empty. Lock-free.
func (s *Store) Size() int {
	e := s.entry.Load()
	if e == nil {
		return 0
	}
	return e.dataset.Len()
}
