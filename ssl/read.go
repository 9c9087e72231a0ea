package ssl

import "github.com/gingogo/lighttpd2/chunk"

const (
	// blockSize is the chunk granularity for both adapters.
	blockSize = 16 * 1024
	// maxReadCeiling bounds how much one Read call may pull off the
	// transport regardless of the limiter.
	maxReadCeiling = 16 * blockSize // 256k
)

// Read drains available plaintext from the session into dst, in chunks of
// at most blockSize bytes, until the engine pauses, the session ends, a
// short block signals the transport is drained, or the limiter's allowance
// at call entry is used up.
//
// StatusWantRead / StatusWantWrite mean the call is paused, not failed:
// re-arm the matching transport readiness and call Read again.  Note a
// paused read may need write readiness (the engine may have handshake
// records to flush).
func (c *Conn) Read(dst *chunk.Queue, lim *chunk.Limiter) Outcome {
	maxRead := int64(maxReadCeiling)
	if lim.Limit() > 0 {
		if remain := lim.Limit() - lim.Current(); maxRead > remain {
			maxRead = remain
			if maxRead <= 0 {
				// We still have to attempt one read to avoid a livelock,
				// but the caller should have dropped read interest.
				maxRead = 0
				recordf(c.sink, SeverityError,
					"ssl read: transport should have read interest disabled, inbound queue is already full")
			}
		}
	}

	// Pick up the buffer a paused attempt left behind, if any.
	buf := c.pendingRead
	c.pendingRead = nil

	var total int64
	for {
		if buf == nil {
			buf = make([]byte, blockSize)
		}

		att := c.engine.ReadAttempt(buf)
		out := c.classify("ssl read", att)
		tracef(traceTypeIO, "read attempt: %s", out)

		switch out.Status {
		case StatusWantRead, StatusWantWrite:
			// Paused.  Keep the buffer for the retry.
			c.pendingRead = buf
			return out

		case StatusSuccess:
			n := out.N
			if n == 0 {
				return outcome(StatusPeerClosed)
			}
			dst.Append(buf[:n])
			total += int64(n)
			if n == blockSize && total < maxRead {
				buf = nil
				continue
			}
			return success(int(total))

		default:
			// Terminal.  Chunks already appended this call stay appended;
			// StatusNoise in particular must not drop partial data.
			return out
		}
	}
}
