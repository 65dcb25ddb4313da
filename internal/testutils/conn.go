package testutils

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

var netdebug = os.Getenv("NETDEBUG") != ""

// Conn logs every read and write to the test log when NETDEBUG is set.
type Conn struct {
	Name string
	TB   testing.TB
	net.Conn
}

func (c Conn) Read(b []byte) (n int, err error) {
	c.TB.Helper()

	n, err = c.Conn.Read(b)
	c.TB.Logf("%s: read %d bytes: %q", c.Name, n, b[:n])
	return
}

func (c Conn) Write(b []byte) (n int, err error) {
	c.TB.Helper()

	n, err = c.Conn.Write(b)
	c.TB.Logf("%s: wrote %d bytes: %q", c.Name, n, b[:n])
	return
}

// ServerTransport returns a transport that sends every request to srv, no
// matter which host the request names. This lets tests keep production
// hostnames such as mws.amazonservices.com in their URLs.
//
// TLS still verifies srv's certificate, against the listener's own name.
func ServerTransport(tb testing.TB, srv *httptest.Server) *http.Transport {
	tb.Helper()

	lAddr := srv.Listener.Addr()

	tr := srv.Client().Transport.(*http.Transport).Clone()

	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		c, err := d.DialContext(ctx, lAddr.Network(), lAddr.String())
		if err != nil || !netdebug {
			return c, err
		}
		return Conn{Name: "dial " + addr, TB: tb, Conn: c}, nil
	}

	if tr.TLSClientConfig != nil {
		tr.TLSClientConfig.ServerName, _, _ = net.SplitHostPort(lAddr.String())
	}

	tb.Cleanup(tr.CloseIdleConnections)

	return tr
}
