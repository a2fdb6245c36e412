// Package transport provides the outbound HTTP transport used to reach
// the delivery platform.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// The platform sits behind a CDN that fingerprints TLS ClientHellos (JA3)
// and throttles anything that doesn't look like a browser. Go's standard
// TLS stack has a distinctive fingerprint, so requests built on the default
// transport get rate limited or challenged regardless of headers.
//
// NewBrowserTransport dials with uTLS presenting Chrome's ClientHello and
// lets ALPN pick the protocol: HTTP/2 framing via x/net/http2 when the
// server negotiates h2, plain HTTP/1.1 otherwise. Header fabrication is a
// separate concern (see internal/eats); this package only makes the
// connection itself look right.

// NewBrowserTransport returns an http.RoundTripper whose TLS handshake
// matches Chrome's fingerprint. timeout bounds the TCP dial.
func NewBrowserTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2 := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
	}

	h1 := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &browserTransport{h2: h2, h1: h1}
}

// browserTransport prefers HTTP/2 and falls back to HTTP/1.1 for servers
// that refuse h2 on the negotiated connection.
type browserTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	return t.h1.RoundTrip(req)
}

// dialBrowserTLS establishes a TLS connection with Chrome's ClientHello.
func dialBrowserTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	// HelloChrome_Auto tracks the newest Chrome hello uTLS ships; default
	// ALPN advertises h2 and http/1.1.
	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
