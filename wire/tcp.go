// Package wire provides concrete sendloop.Transport adaptors. Each is a
// thin shell around a net.Conn: connect, then let the Send Loop drive
// Write in its peek→throttle→commit cycle. TCP stream and Unix datagram
// are implemented here; the rest (UDP, UDS stream, HTTP, gRPC) repeat the
// same pattern and are out of scope for this core.
package wire

import (
	"context"
	"net"
)

// TCP is a stream transport: a persistent net.Conn, written to with
// net.Conn.Write, which itself loops internally until the full buffer is
// written or an error occurs — write-all semantics for stream transports.
type TCP struct {
	Addr string

	conn net.Conn
}

func (t *TCP) Connect(ctx context.Context) error {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *TCP) Write(_ context.Context, p []byte) (int, error) {
	return t.conn.Write(p)
}

func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

func (t *TCP) IsDatagram() bool { return false }
func (t *TCP) Name() string     { return "tcp" }
