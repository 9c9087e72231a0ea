package ssl

// AttemptCode is the engine's own classification of one read or write
// attempt, before outcome classification.
type AttemptCode int

const (
	// AttemptData: the attempt moved Attempt.N > 0 plaintext bytes.
	AttemptData AttemptCode = iota
	// AttemptWantRead: the engine needs ciphertext from the transport.
	AttemptWantRead
	// AttemptWantWrite: the engine needs to flush ciphertext out first.
	AttemptWantWrite
	// AttemptZeroReturn: the peer closed the session cleanly.
	AttemptZeroReturn
	// AttemptSyscall: the transport itself failed; Attempt.Errno holds the
	// error if the engine saw one.
	AttemptSyscall
	// AttemptOther: a TLS-level failure; Attempt.Queued holds the
	// engine's diagnostics.
	AttemptOther
)

func (c AttemptCode) String() string {
	switch c {
	case AttemptData:
		return "data"
	case AttemptWantRead:
		return "want-read"
	case AttemptWantWrite:
		return "want-write"
	case AttemptZeroReturn:
		return "zero-return"
	case AttemptSyscall:
		return "syscall"
	case AttemptOther:
		return "other"
	}
	return "attempt(?)"
}

// Reason identifies why a TLS-level failure happened, as far as the engine
// can tell.  A small set of reasons is routine handshake noise: port
// scanners, clients that reject our certificate, mismatched cipher
// configurations.  Everything else is fatal.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonHandshakeFailure
	ReasonUnknownCA
	ReasonCertificateUnknown
	ReasonBadCertificate
)

// noise reports whether the reason is routine handshake noise rather than
// an error worth surfacing by default.
func (r Reason) noise() bool {
	switch r {
	case ReasonHandshakeFailure, ReasonUnknownCA, ReasonCertificateUnknown, ReasonBadCertificate:
		return true
	}
	return false
}

// Diagnostic is one queued engine-internal error entry.
type Diagnostic struct {
	Reason  Reason
	Message string
}

// Attempt is the raw result of a single engine read or write attempt.
// Queued carries every diagnostic the engine accumulated during the
// attempt; the engine starts each attempt with a clean queue.
type Attempt struct {
	N      int
	Code   AttemptCode
	Errno  error
	Queued []Diagnostic
}

// Engine is a TLS session bound to exactly one transport connection.  All
// methods are non-blocking: an attempt that cannot progress reports
// AttemptWantRead or AttemptWantWrite and may be retried later.  A write
// attempt that paused must be retried with the identical buffer contents.
//
// Engines are driven from a single goroutine per connection; they are not
// safe for concurrent use.
type Engine interface {
	// ReadAttempt tries to move plaintext from the session into p.
	ReadAttempt(p []byte) Attempt
	// WriteAttempt tries to move plaintext from p into the session.  On
	// AttemptData, N bytes of p were accepted and must not be resubmitted.
	WriteAttempt(p []byte) Attempt
	// Shutdown sends a close notification to the peer, best effort.  It
	// never waits for the peer's acknowledgment.
	Shutdown()
	// Free releases the session.  The transport is borrowed and remains
	// open; closing it is the caller's job.  Free is idempotent.
	Free()
}
