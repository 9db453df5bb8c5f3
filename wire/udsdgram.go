package wire

import (
	"context"
	"net"
)

// MaxDatagramBlockBytes is the UDS-datagram ceiling used by convention:
// 8192 bytes, not a query of the kernel's actual SO_SNDBUF/wmem limits.
// Nothing in this module applies it: block sizes (including the default
// set) are not clipped to it, and the Send Loop starts with no ceiling,
// lowering one only after a failed datagram write.
const MaxDatagramBlockBytes = 8192

// UnixDatagram is a datagram transport over a Unix domain socket
// (SOCK_DGRAM). Unlike TCP, a partial write or an oversized-message error
// is a full failure for that datagram: there is no write_all retry at this
// layer.
type UnixDatagram struct {
	Addr string // path to the peer's unixgram socket

	conn *net.UnixConn
}

func (u *UnixDatagram) Connect(ctx context.Context) error {
	raddr, err := net.ResolveUnixAddr("unixgram", u.Addr)
	if err != nil {
		return err
	}
	conn, err := net.DialUnix("unixgram", nil, raddr)
	if err != nil {
		return err
	}
	u.conn = conn
	return nil
}

func (u *UnixDatagram) Write(_ context.Context, p []byte) (int, error) {
	return u.conn.Write(p)
}

func (u *UnixDatagram) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}

func (u *UnixDatagram) IsDatagram() bool { return true }
func (u *UnixDatagram) Name() string     { return "udsdgram" }
