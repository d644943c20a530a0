package httpclient

import (
	"context"
	"net"
	"time"
)

// deadlineConn refreshes the read deadline before every Read, turning it
// into an idle timeout rather than a limit on the whole response.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func dialWithReadTimeout(dialer *net.Dialer, timeout time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil || timeout <= 0 {
			return conn, err
		}
		return &deadlineConn{Conn: conn, timeout: timeout}, nil
	}
}
