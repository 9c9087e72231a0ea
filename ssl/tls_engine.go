package ssl

import (
	"crypto/tls"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"

	"github.com/pkg/errors"
)

// engineBufMax bounds the plaintext staged in each direction between the
// attempt API and the session goroutines.
const engineBufMax = 64 * 1024

// tlsEngine adapts crypto/tls, whose connection API blocks, to the
// non-blocking attempt contract.  Two goroutines own the tls.Conn: the
// read loop pulls decrypted plaintext into a staging buffer, the write
// loop pushes staged plaintext out.  The handshake happens transparently
// inside the first loop iterations.  Attempt calls only exchange bytes
// with the staging buffers and report want-read or want-write when a
// buffer is empty or full; terminal errors from either loop are latched
// and surfaced on the next attempt.
//
// The transport is borrowed.  Free stops accepting work but deliberately
// leaves the transport open; the caller closing it is what unblocks a
// loop parked inside the tls.Conn.
type tlsEngine struct {
	tconn *tls.Conn

	mu    sync.Mutex
	rcond *sync.Cond // read loop waits here while rbuf is full
	wcond *sync.Cond // write loop waits here while wbuf is empty

	rbuf []byte // plaintext from the peer, not yet claimed
	rerr error  // latched terminal error, read side
	wbuf []byte // plaintext accepted from attempts, not yet written
	werr error  // latched terminal error, write side

	shutdown bool // close notification requested
	freed    bool

	progress chan struct{}
}

func newTLSEngine(transport net.Conn, config *tls.Config) (*tlsEngine, error) {
	if transport == nil {
		return nil, errors.New("nil transport")
	}
	if config == nil {
		return nil, errors.New("nil TLS configuration")
	}
	e := &tlsEngine{
		tconn:    tls.Server(transport, config),
		progress: make(chan struct{}, 1),
	}
	e.rcond = sync.NewCond(&e.mu)
	e.wcond = sync.NewCond(&e.mu)
	go e.readLoop()
	go e.writeLoop()
	return e, nil
}

// Progress returns a channel that receives a token whenever the engine
// made progress a paused attempt may care about: plaintext arrived,
// staging space freed, or a terminal condition was latched.
func (e *tlsEngine) Progress() <-chan struct{} {
	return e.progress
}

func (e *tlsEngine) notify() {
	select {
	case e.progress <- struct{}{}:
	default:
	}
}

func (e *tlsEngine) readLoop() {
	buf := make([]byte, blockSize)
	for {
		n, err := e.tconn.Read(buf)

		e.mu.Lock()
		if n > 0 {
			e.rbuf = append(e.rbuf, buf[:n]...)
		}
		if err != nil {
			e.rerr = err
			e.mu.Unlock()
			e.notify()
			tracef(traceTypeEngine, "read loop done: %v", err)
			return
		}
		for len(e.rbuf) >= engineBufMax && !e.freed {
			e.rcond.Wait()
		}
		freed := e.freed
		e.mu.Unlock()
		e.notify()
		if freed {
			return
		}
	}
}

func (e *tlsEngine) writeLoop() {
	for {
		e.mu.Lock()
		for len(e.wbuf) == 0 && !e.shutdown && !e.freed {
			e.wcond.Wait()
		}
		if len(e.wbuf) == 0 {
			// Shutdown or free with nothing left to drain.
			sendClose := e.shutdown && e.werr == nil
			e.mu.Unlock()
			if sendClose {
				// Best effort close notification; we do not wait for the
				// peer's acknowledgment and ignore the result.
				_ = e.tconn.CloseWrite()
			}
			tracef(traceTypeEngine, "write loop done")
			return
		}
		buf := e.wbuf
		e.wbuf = nil
		e.mu.Unlock()
		e.notify() // staging space freed

		if _, err := e.tconn.Write(buf); err != nil {
			e.mu.Lock()
			e.werr = err
			e.mu.Unlock()
			e.notify()
			tracef(traceTypeEngine, "write loop done: %v", err)
			return
		}
		e.notify()
	}
}

func (e *tlsEngine) ReadAttempt(p []byte) Attempt {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.freed {
		return Attempt{Code: AttemptSyscall, Errno: net.ErrClosed}
	}
	if len(e.rbuf) > 0 {
		n := copy(p, e.rbuf)
		e.rbuf = e.rbuf[n:]
		if len(e.rbuf) == 0 {
			e.rbuf = nil
		}
		e.rcond.Signal()
		return Attempt{N: n, Code: AttemptData}
	}
	if e.rerr != nil {
		return attemptFromError(e.rerr)
	}
	return Attempt{Code: AttemptWantRead}
}

func (e *tlsEngine) WriteAttempt(p []byte) Attempt {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.freed || e.shutdown {
		return Attempt{Code: AttemptSyscall, Errno: net.ErrClosed}
	}
	if e.werr != nil {
		return attemptFromError(e.werr)
	}
	free := engineBufMax - len(e.wbuf)
	if free <= 0 {
		return Attempt{Code: AttemptWantWrite}
	}
	n := len(p)
	if n > free {
		n = free
	}
	if n == 0 {
		return Attempt{Code: AttemptData}
	}
	e.wbuf = append(e.wbuf, p[:n]...)
	e.wcond.Signal()
	return Attempt{N: n, Code: AttemptData}
}

func (e *tlsEngine) Shutdown() {
	e.mu.Lock()
	e.shutdown = true
	e.mu.Unlock()
	e.wcond.Signal()
}

func (e *tlsEngine) Free() {
	e.mu.Lock()
	if e.freed {
		e.mu.Unlock()
		return
	}
	e.freed = true
	e.rbuf = nil
	e.mu.Unlock()
	e.rcond.Broadcast()
	e.wcond.Broadcast()
}

// attemptFromError turns a latched tls.Conn error into the raw attempt
// surface the classifier consumes.
func attemptFromError(err error) Attempt {
	if err == io.EOF {
		// Clean shutdown on the remote side.
		return Attempt{Code: AttemptZeroReturn}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return Attempt{Code: AttemptSyscall, Errno: errno}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op != "remote error" {
		return Attempt{Code: AttemptSyscall, Errno: err}
	}
	if errors.Is(err, net.ErrClosed) || err == io.ErrUnexpectedEOF {
		return Attempt{Code: AttemptSyscall, Errno: err}
	}

	return Attempt{
		Code: AttemptOther,
		Queued: []Diagnostic{{
			Reason:  reasonFromError(err),
			Message: err.Error(),
		}},
	}
}

// reasonFromError buckets TLS-level failures.  crypto/tls reports alerts
// and handshake problems as formatted errors, so this goes by message,
// with the record-header case matched structurally.
func reasonFromError(err error) Reason {
	var rhe tls.RecordHeaderError
	if errors.As(err, &rhe) {
		// Plaintext or garbage on a TLS port: scanner noise.
		return ReasonHandshakeFailure
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "handshake failure"),
		strings.Contains(msg, "unsupported versions"),
		strings.Contains(msg, "no cipher suite supported"):
		return ReasonHandshakeFailure
	case strings.Contains(msg, "unknown certificate authority"):
		return ReasonUnknownCA
	case strings.Contains(msg, "unknown certificate"):
		return ReasonCertificateUnknown
	case strings.Contains(msg, "bad certificate"):
		return ReasonBadCertificate
	}
	return ReasonUnknown
}
