package ssl

import "github.com/gingogo/lighttpd2/chunk"

// Write drains src into the session, at most writeMax bytes, in front-of-
// queue views of at most blockSize bytes.
//
// When a write attempt pauses, the next attempt must be made with the same
// bytes and the same length.  Write guarantees that structurally: the
// queue head only advances after the engine confirms n bytes, so the view
// re-derived on retry is identical to the one that paused.  Callers must
// not modify or re-chunk src between a pause and its retry.
func (c *Conn) Write(src *chunk.Queue, writeMax int64) Outcome {
	var total int
	for {
		if src.Len() == 0 {
			return success(total)
		}

		block := src.PeekFront(blockSize)

		att := c.engine.WriteAttempt(block)
		out := c.classify("ssl write", att)
		tracef(traceTypeIO, "write attempt: %s of %d", out, len(block))

		switch out.Status {
		case StatusWantRead, StatusWantWrite:
			// Paused; nothing consumed, the retry sees the same view.
			return out

		case StatusSuccess:
			n := out.N
			src.SkipFront(n)
			writeMax -= int64(n)
			total += n
			if n == len(block) && writeMax > 0 {
				continue
			}
			// Short write or budget used up.
			return success(total)

		default:
			return out
		}
	}
}
