package session

import "sync"

// DefaultConnectionCeiling is the per-source-address concurrent connection
// limit applied when the config does not override it.
const DefaultConnectionCeiling = 5

// ConnLimiter bounds concurrent connections per source address so one
// client cannot exhaust the server.
type ConnLimiter struct {
	ceiling int

	mu     sync.Mutex
	counts map[string]int
}

// NewConnLimiter creates a limiter with the given ceiling; a non-positive
// ceiling falls back to the default.
func NewConnLimiter(ceiling int) *ConnLimiter {
	if ceiling <= 0 {
		ceiling = DefaultConnectionCeiling
	}
	return &ConnLimiter{ceiling: ceiling, counts: make(map[string]int)}
}

// Acquire counts a new connection from addr and reports whether it is
// within the ceiling. A rejected connection must not be Released.
func (l *ConnLimiter) Acquire(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts[addr] >= l.ceiling {
		return false
	}
	l.counts[addr]++
	return true
}

// Release drops the count for a closed connection.
func (l *ConnLimiter) Release(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts[addr] <= 1 {
		delete(l.counts, addr)
		return
	}
	l.counts[addr]--
}

// Count reports the live connection count for an address.
func (l *ConnLimiter) Count(addr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[addr]
}
