package chunk

// Limiter tracks how many bytes an inbound queue currently buffers against
// a configured ceiling.  Readers consult it before pulling more data off
// the transport; a limit of zero or below means unlimited.
//
// The limiter is plain bookkeeping shared by one connection's queue and its
// reader; it performs no synchronization of its own.
type Limiter struct {
	limit   int64
	current int64
}

// NewLimiter returns a limiter with the given byte ceiling.
func NewLimiter(limit int64) *Limiter {
	return &Limiter{limit: limit}
}

// Limit returns the configured ceiling.  Non-positive means unlimited.
func (l *Limiter) Limit() int64 {
	if l == nil {
		return 0
	}
	return l.limit
}

// Current returns the bytes currently charged against the ceiling.
func (l *Limiter) Current() int64 {
	if l == nil {
		return 0
	}
	return l.current
}

// Add charges (or, negative, credits) delta bytes.  Current never drops
// below zero.
func (l *Limiter) Add(delta int64) {
	if l == nil {
		return
	}
	l.current += delta
	if l.current < 0 {
		l.current = 0
	}
}
