// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// Compile-time interface checks.
var (
	_ Listener = (*TCPListener)(nil)
	_ Dialer   = (*TCPDialer)(nil)
)

// TCPListener accepts client connections over TCP. Every connection is
// reported as a direct route. It requires the client to reach the host
// directly; use WebRTCTransport for NAT traversal.
type TCPListener struct {
	listener  net.Listener
	closeOnce sync.Once
	closeErr  error
}

// NewTCPListener listens on address (e.g., ":7891" or
// "192.168.1.10:7891"). Use ":0" for a random available port.
func NewTCPListener(address string) (*TCPListener, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &TCPListener{listener: listener}, nil
}

// Serve accepts TCP connections until ctx is cancelled or Close is
// called.
func (l *TCPListener) Serve(ctx context.Context, handler ConnectionHandler) error {
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			tcpConn.SetNoDelay(true)
		}
		go handler(conn, protocol.TransportRoute{
			Type:          protocol.RouteDirect,
			RemoteAddress: conn.RemoteAddr().String(),
			LocalAddress:  conn.LocalAddr().String(),
		})
	}
}

// Address returns the TCP address in "host:port" format.
func (l *TCPListener) Address() string {
	return l.listener.Addr().String()
}

// Close stops accepting connections. Connections already handed out are
// not affected.
func (l *TCPListener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.listener.Close()
	})
	return l.closeErr
}

// TCPDialer opens TCP connections to a host.
type TCPDialer struct {
	// Timeout bounds connection establishment. Zero leaves only the
	// context deadline.
	Timeout time.Duration
}

// DialContext opens a TCP connection to the given address (host:port).
func (d *TCPDialer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return (&net.Dialer{Timeout: d.Timeout}).DialContext(ctx, "tcp", address)
}
