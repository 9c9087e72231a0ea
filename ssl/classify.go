package ssl

import (
	"errors"
	"syscall"
)

// classify maps one raw engine attempt onto the status taxonomy.  This is
// the single place error semantics live; the read and write adapters never
// look at engine internals themselves.
//
// Diagnostics queued during the attempt are drained here: syscall and
// fatal protocol failures forward every entry to the sink, noise entries
// are forwarded only when logNoise is set.  op names the operation for the
// sink ("ssl read", "ssl write").
func classify(op string, att Attempt, sink Sink, logNoise bool) Outcome {
	if att.N > 0 {
		return success(att.N)
	}

	switch att.Code {
	case AttemptWantRead:
		return outcome(StatusWantRead)

	case AttemptWantWrite:
		return outcome(StatusWantWrite)

	case AttemptZeroReturn:
		// Clean shutdown on the remote side.
		return outcome(StatusPeerClosed)

	case AttemptSyscall:
		if len(att.Queued) > 0 {
			for _, d := range att.Queued {
				recordf(sink, SeverityError, "%s: %s", op, d.Message)
			}
			return outcome(StatusIOError)
		}
		if att.Errno != nil {
			if errors.Is(att.Errno, syscall.EPIPE) || errors.Is(att.Errno, syscall.ECONNRESET) {
				return outcome(StatusConnClosed)
			}
			recordf(sink, SeverityError, "%s: %s", op, att.Errno)
			return outcome(StatusIOError)
		}
		// Neither queued diagnostics nor an errno.
		recordf(sink, SeverityError, "%s: unexpected eof", op)
		return outcome(StatusIOError)

	case AttemptOther:
		fatal := false
		for _, d := range att.Queued {
			if !d.Reason.noise() {
				fatal = true
				break
			}
		}
		if fatal {
			for _, d := range att.Queued {
				recordf(sink, SeverityError, "%s: %s", op, d.Message)
			}
			return outcome(StatusFatal)
		}
		if logNoise {
			for _, d := range att.Queued {
				recordf(sink, SeverityDebug, "%s: %s", op, d.Message)
			}
		}
		return outcome(StatusNoise)
	}

	// AttemptData with N == 0: some stacks report this distinctly from a
	// zero-return; treat it as a clean close.
	return outcome(StatusPeerClosed)
}
