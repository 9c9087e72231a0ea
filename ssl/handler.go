package ssl

import (
	"net"

	"github.com/gingogo/lighttpd2/chunk"
)

// SocketHandler is the callback surface an event loop drives for one
// listening endpoint.  The loop must serialize all calls for a given Conn
// and must stop servicing a Conn, other than OnClose, once a call returns
// a terminal status.
//
// A want-read or want-write return asks the loop to re-arm transport
// readiness and re-invoke the same callback; the wanted direction can
// differ from the serviced one, since the session may need to exchange
// handshake or control records either way.
type SocketHandler interface {
	OnAccept(transport net.Conn) (*Conn, error)
	OnReadable(c *Conn, in *chunk.Queue, lim *chunk.Limiter) Outcome
	OnWritable(c *Conn, out *chunk.Queue, writeMax int64) Outcome
	OnClose(c *Conn)
}

var _ SocketHandler = (*Context)(nil)

// OnReadable moves pending plaintext from the session into in, bounded by
// the limiter's allowance.
func (cx *Context) OnReadable(c *Conn, in *chunk.Queue, lim *chunk.Limiter) Outcome {
	return c.Read(in, lim)
}

// OnWritable moves queued plaintext from out into the session, at most
// writeMax bytes.
func (cx *Context) OnWritable(c *Conn, out *chunk.Queue, writeMax int64) Outcome {
	return c.Write(out, writeMax)
}

// OnClose tears the session down.  Idempotent.
func (cx *Context) OnClose(c *Conn) {
	c.Close()
}
