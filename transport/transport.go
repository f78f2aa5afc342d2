// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// ConnectionHandler receives each inbound client connection together
// with the route it arrived on. It is called on its own goroutine and
// owns conn from then on.
type ConnectionHandler func(conn net.Conn, route protocol.TransportRoute)

// Listener accepts inbound client connections for the host.
type Listener interface {
	// Serve accepts connections and hands each to handler. Blocks until
	// ctx is cancelled or Close is called. Returns nil on clean
	// shutdown.
	Serve(ctx context.Context, handler ConnectionHandler) error

	// Address returns the address clients dial. The format is
	// transport-specific ("192.168.1.10:7891" for TCP, the host's
	// signaling ID for WebRTC).
	Address() string

	// Close shuts down the listener. Subsequent calls to Serve return
	// immediately.
	Close() error
}

// Dialer opens connections from a client to a host.
type Dialer interface {
	// DialContext connects to the host at address, in the format the
	// host's Listener.Address returns.
	DialContext(ctx context.Context, address string) (net.Conn, error)
}
