package ssl

import (
	"testing"

	"github.com/gingogo/lighttpd2/chunk"
)

func newTestConn(eng Engine, sink Sink) *Conn {
	return NewConn(eng, sink, false)
}

func TestReadSingleShortBlock(t *testing.T) {
	eng := &fakeEngine{reads: []step{dataStep([]byte("hello"))}}
	c := newTestConn(eng, nil)
	q := chunk.NewQueue()

	out := c.Read(q, nil)
	assertStatus(t, out, StatusSuccess)
	assertEquals(t, out.N, 5)
	assertByteEquals(t, q.Bytes(), []byte("hello"))
	// A short block means the transport is drained; exactly one attempt.
	assertEquals(t, len(eng.readBufs), 1)
}

func TestReadLoopsWhileFullBlocks(t *testing.T) {
	// 40 KiB delivered as full, full, short: one call collects everything.
	eng := &fakeEngine{reads: []step{
		dataStep(repeated('a', blockSize)),
		dataStep(repeated('b', blockSize)),
		dataStep(repeated('c', 8*1024)),
	}}
	c := newTestConn(eng, nil)
	q := chunk.NewQueue()

	out := c.Read(q, nil)
	assertStatus(t, out, StatusSuccess)
	assertEquals(t, out.N, 40*1024)
	assertEquals(t, q.Len(), int64(40*1024))

	// Chunk sizes never exceed the block size, order preserved.
	got := q.Bytes()
	assertByteEquals(t, got[:blockSize], repeated('a', blockSize))
	assertByteEquals(t, got[blockSize:2*blockSize], repeated('b', blockSize))
	assertByteEquals(t, got[2*blockSize:], repeated('c', 8*1024))
	for q.Len() > 0 {
		v := q.PeekFront(1 << 20)
		assert(t, len(v) <= blockSize, "chunk larger than block size")
		q.SkipFront(len(v))
	}
}

func TestReadPausePreservesPendingBuffer(t *testing.T) {
	eng := &fakeEngine{}
	c := newTestConn(eng, nil)
	q := chunk.NewQueue()

	// Arbitrarily many consecutive pauses reuse the very same buffer and
	// append nothing.
	for i := 0; i < 5; i++ {
		out := c.Read(q, nil)
		assertStatus(t, out, StatusWantRead)
		assertEquals(t, q.Len(), int64(0))
	}
	assertEquals(t, len(eng.readBufs), 5)
	first := eng.readBufs[0]
	for _, b := range eng.readBufs[1:] {
		assertEquals(t, &b[0], &first[0])
		assertEquals(t, len(b), blockSize)
	}

	// The retry that succeeds still uses the pending buffer.
	eng.reads = []step{dataStep([]byte("resumed"))}
	out := c.Read(q, nil)
	assertStatus(t, out, StatusSuccess)
	assertEquals(t, &eng.readBufs[5][0], &first[0])
	assertByteEquals(t, q.Bytes(), []byte("resumed"))
}

func TestReadPauseOnWantWrite(t *testing.T) {
	eng := &fakeEngine{reads: []step{codeStep(AttemptWantWrite)}}
	c := newTestConn(eng, nil)

	out := c.Read(chunk.NewQueue(), nil)
	assertStatus(t, out, StatusWantWrite)
	assert(t, c.pendingRead != nil, "paused read must keep its buffer")
}

func TestReadLimiterCapsTotal(t *testing.T) {
	// Allowance of 1.5 blocks: a full block keeps the loop going, and the
	// next full block ends the call because the cap is reached.  Entry
	// allowance is what counts, even though appends charge the limiter.
	lim := chunk.NewLimiter(blockSize + blockSize/2)
	q := chunk.NewQueue()
	q.SetLimiter(lim)

	eng := &fakeEngine{reads: []step{
		dataStep(repeated('x', blockSize)),
		dataStep(repeated('y', blockSize)),
		dataStep(repeated('z', blockSize)),
	}}
	c := newTestConn(eng, nil)

	out := c.Read(q, lim)
	assertStatus(t, out, StatusSuccess)
	assertEquals(t, out.N, 2*blockSize)
	assertEquals(t, len(eng.readBufs), 2)
}

func TestReadQuotaFloor(t *testing.T) {
	// Zero remaining allowance: still exactly one attempt, plus a
	// diagnostic telling the caller read interest should be off.
	lim := chunk.NewLimiter(1024)
	lim.Add(1024)
	sink := &memSink{}

	eng := &fakeEngine{reads: []step{dataStep([]byte("forced"))}}
	c := newTestConn(eng, sink)
	q := chunk.NewQueue()

	out := c.Read(q, lim)
	assertStatus(t, out, StatusSuccess)
	assertEquals(t, len(eng.readBufs), 1)
	assertByteEquals(t, q.Bytes(), []byte("forced"))
	assertEquals(t, len(sink.msgs), 1)
	assertEquals(t, sink.sevs[0], SeverityError)
}

func TestReadPeerClose(t *testing.T) {
	eng := &fakeEngine{reads: []step{codeStep(AttemptZeroReturn)}}
	c := newTestConn(eng, nil)
	q := chunk.NewQueue()

	out := c.Read(q, nil)
	assertStatus(t, out, StatusPeerClosed)
	assertEquals(t, q.Len(), int64(0))
	assert(t, c.pendingRead == nil, "terminal read must drop the buffer")
}

func TestReadZeroByteData(t *testing.T) {
	// Defensive: 0 bytes with a data code counts as a clean close.
	eng := &fakeEngine{reads: []step{{att: Attempt{N: 0, Code: AttemptData}}}}
	c := newTestConn(eng, nil)

	out := c.Read(chunk.NewQueue(), nil)
	assertStatus(t, out, StatusPeerClosed)
}

func TestReadNoiseKeepsAppendedData(t *testing.T) {
	// A full block followed by handshake noise: the session is over, but
	// the chunk already appended this call stays in the queue.
	eng := &fakeEngine{reads: []step{
		dataStep(repeated('d', blockSize)),
		{att: Attempt{Code: AttemptOther, Queued: []Diagnostic{
			{Reason: ReasonHandshakeFailure, Message: "handshake failure"},
		}}},
	}}
	c := newTestConn(eng, nil)
	q := chunk.NewQueue()

	out := c.Read(q, nil)
	assertStatus(t, out, StatusNoise)
	assertEquals(t, q.Len(), int64(blockSize))
}

func TestReadTransportErrorTerminates(t *testing.T) {
	eng := &fakeEngine{reads: []step{
		dataStep(repeated('e', blockSize)),
		codeStep(AttemptSyscall),
	}}
	sink := &memSink{}
	c := newTestConn(eng, sink)
	q := chunk.NewQueue()

	out := c.Read(q, nil)
	assertStatus(t, out, StatusIOError)
	assertEquals(t, q.Len(), int64(blockSize))
	assertEquals(t, len(sink.msgs), 1)
}

func TestReadCeilingWithoutLimiter(t *testing.T) {
	// 17 full blocks scripted; the 256 KiB ceiling stops the loop at 16.
	var steps []step
	for i := 0; i < 17; i++ {
		steps = append(steps, dataStep(repeated('f', blockSize)))
	}
	eng := &fakeEngine{reads: steps}
	c := newTestConn(eng, nil)
	q := chunk.NewQueue()

	out := c.Read(q, nil)
	assertStatus(t, out, StatusSuccess)
	assertEquals(t, out.N, maxReadCeiling)
	assertEquals(t, len(eng.readBufs), 16)
}
