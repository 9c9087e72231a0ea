// Package chunk provides the FIFO byte containers connections stage their
// raw traffic in: an ordered queue of owned byte chunks plus a byte-budget
// limiter for inbound backpressure.
package chunk

// Queue is an ordered sequence of owned byte chunks.  Producers append
// whole chunks; consumers view the front without consuming it and then
// skip exactly the bytes that were accepted downstream.
//
// PeekFront returns the same backing bytes for the same unconsumed front,
// which is what lets a paused write be retried with identical arguments.
//
// A Queue is not safe for concurrent use; each connection owns its queues.
type Queue struct {
	chunks  [][]byte
	offset  int // consumed bytes of chunks[0]
	length  int64
	limiter *Limiter
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// SetLimiter attaches a limiter that is charged on Append and credited on
// SkipFront.  Passing nil detaches it.
func (q *Queue) SetLimiter(l *Limiter) {
	q.limiter = l
}

// Len returns the number of unconsumed bytes in the queue.
func (q *Queue) Len() int64 {
	return q.length
}

// Append takes ownership of b and places it at the back of the queue.
// Empty chunks are dropped.
func (q *Queue) Append(b []byte) {
	if len(b) == 0 {
		return
	}
	q.chunks = append(q.chunks, b)
	q.length += int64(len(b))
	if q.limiter != nil {
		q.limiter.Add(int64(len(b)))
	}
}

// PeekFront returns a borrowed view of up to max bytes at the front of the
// queue.  The view never spans chunks, is valid until the next SkipFront,
// and is identical across repeated calls while the front is unconsumed.
// Returns nil on an empty queue or non-positive max.
func (q *Queue) PeekFront(max int) []byte {
	if max <= 0 || len(q.chunks) == 0 {
		return nil
	}
	front := q.chunks[0][q.offset:]
	if len(front) > max {
		front = front[:max]
	}
	return front
}

// SkipFront consumes n bytes from the front of the queue, crossing chunk
// boundaries as needed.  n larger than Len empties the queue.
func (q *Queue) SkipFront(n int) {
	for n > 0 && len(q.chunks) > 0 {
		remain := len(q.chunks[0]) - q.offset
		if n < remain {
			q.offset += n
			q.length -= int64(n)
			if q.limiter != nil {
				q.limiter.Add(-int64(n))
			}
			return
		}
		q.chunks[0] = nil
		q.chunks = q.chunks[1:]
		q.offset = 0
		q.length -= int64(remain)
		if q.limiter != nil {
			q.limiter.Add(-int64(remain))
		}
		n -= remain
	}
}

// Bytes flattens the unconsumed contents into one new slice.  Intended for
// small queues (tests, echo handling); large queues should be drained with
// PeekFront/SkipFront.
func (q *Queue) Bytes() []byte {
	out := make([]byte, 0, q.length)
	for i, c := range q.chunks {
		if i == 0 {
			c = c[q.offset:]
		}
		out = append(out, c...)
	}
	return out
}
