package stream

import "sync"

// globalStreamCap bounds total concurrent SSE connections across all IPs.
const globalStreamCap = 1000

// streamLimiter counts live SSE connections per client IP and in
// total, rejecting new ones past either bound.
type streamLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	total    int
	maxPerIP int
}

func newStreamLimiter(maxPerIP int) *streamLimiter {
	if maxPerIP <= 0 {
		maxPerIP = 10
	}
	return &streamLimiter{
		perIP:    make(map[string]int),
		maxPerIP: maxPerIP,
	}
}

// acquire claims a connection slot for ip. It reports false when the
// per-IP or global budget is exhausted.
func (l *streamLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= globalStreamCap || l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	l.total++
	return true
}

// release returns a slot claimed by acquire.
func (l *streamLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total--
	if l.perIP[ip]--; l.perIP[ip] <= 0 {
		delete(l.perIP, ip)
	}
}

// count reports the live connections for ip.
func (l *streamLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}
