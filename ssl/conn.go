package ssl

// Conn is the TLS session context for one accepted transport connection.
// It owns the engine and an optional read buffer carried across a paused
// read attempt.  The transport itself is borrowed: closing it, and
// deciding when to stop servicing the Conn, stays with the caller.
//
// A Conn is serviced from one goroutine at a time; Read and Write are
// never reentered and never run concurrently with each other.
type Conn struct {
	engine Engine
	sink   Sink

	// logNoise forwards routine handshake-noise diagnostics to the sink.
	logNoise bool

	// pendingRead is non-nil only between a paused read attempt and its
	// retry.  It is handed back to the engine as-is, same buffer, same
	// capacity.  At most one exists per Conn.
	pendingRead []byte
}

// NewConn wraps an engine into a session context.  Most callers go through
// Context.OnAccept instead, which also constructs the engine.
func NewConn(e Engine, sink Sink, logNoise bool) *Conn {
	if sink == nil {
		sink = NopSink{}
	}
	return &Conn{engine: e, sink: sink, logNoise: logNoise}
}

// Close sends a best-effort shutdown notification to the peer, without
// waiting for an acknowledgment, and releases the session.  Calling Close
// on an already-closed Conn is a no-op.  After any terminal status from
// Read or Write this is the only valid call left on the Conn.
func (c *Conn) Close() {
	if c.engine == nil {
		return
	}
	tracef(traceTypeSession, "closing session")
	c.engine.Shutdown()
	c.engine.Free()
	c.engine = nil
	c.pendingRead = nil
}

func (c *Conn) classify(op string, att Attempt) Outcome {
	return classify(op, att, c.sink, c.logNoise)
}

// progressNotifier is implemented by engines that can signal progress to a
// caller parked on a want-read or want-write.
type progressNotifier interface {
	Progress() <-chan struct{}
}

var closedReady = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Ready returns a channel that receives a token when a paused call is
// worth retrying.  For engines without progress notification, and for
// closed Conns, the returned channel is always ready.
func (c *Conn) Ready() <-chan struct{} {
	if pn, ok := c.engine.(progressNotifier); ok {
		return pn.Progress()
	}
	return closedReady
}
