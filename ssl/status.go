// Package ssl terminates TLS for connections driven by a non-blocking,
// readiness-notifying event loop.  A Context holds the shared server-side
// TLS configuration for one listening socket; each accepted transport
// connection gets a Conn whose Read and Write adapters move plaintext
// between the TLS engine and the connection's chunk queues.  Every engine
// call is classified into a small status taxonomy the event loop acts on.
package ssl

import "fmt"

// Status is the classified result of servicing a connection direction.
type Status int

const (
	// StatusSuccess: bytes moved; the Outcome carries how many.
	StatusSuccess Status = iota
	// StatusWantRead: no progress until the transport is readable again.
	StatusWantRead
	// StatusWantWrite: no progress until the transport is writable again.
	StatusWantWrite
	// StatusPeerClosed: the peer shut the session down cleanly.
	StatusPeerClosed
	// StatusConnClosed: the transport went away underneath us (broken
	// pipe, connection reset).
	StatusConnClosed
	// StatusIOError: a transport-level error other than a plain close.
	StatusIOError
	// StatusNoise: the session died of routine handshake noise (probes,
	// clients rejecting our certificate).  Handle like StatusPeerClosed.
	StatusNoise
	// StatusFatal: a TLS protocol error.  Handle like StatusIOError.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusWantRead:
		return "want-read"
	case StatusWantWrite:
		return "want-write"
	case StatusPeerClosed:
		return "peer-closed"
	case StatusConnClosed:
		return "conn-closed"
	case StatusIOError:
		return "io-error"
	case StatusNoise:
		return "noise"
	case StatusFatal:
		return "fatal"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal reports whether the connection must not be serviced again.
func (s Status) Terminal() bool {
	switch s {
	case StatusPeerClosed, StatusConnClosed, StatusIOError, StatusNoise, StatusFatal:
		return true
	}
	return false
}

// CleanClose reports whether the peer ended the session without anything
// worth surfacing to the operator.
func (s Status) CleanClose() bool {
	return s == StatusPeerClosed || s == StatusNoise
}

// Failed reports whether the session ended in an error condition.
func (s Status) Failed() bool {
	return s == StatusConnClosed || s == StatusIOError || s == StatusFatal
}

// Outcome is a Status plus, for StatusSuccess, the number of plaintext
// bytes moved during the call.
type Outcome struct {
	Status Status
	N      int
}

func (o Outcome) String() string {
	if o.Status == StatusSuccess {
		return fmt.Sprintf("success(%d)", o.N)
	}
	return o.Status.String()
}

func success(n int) Outcome {
	return Outcome{Status: StatusSuccess, N: n}
}

func outcome(s Status) Outcome {
	return Outcome{Status: s}
}
