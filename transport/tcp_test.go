// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// acceptedConn is what a test ConnectionHandler hands back.
type acceptedConn struct {
	conn  net.Conn
	route protocol.TransportRoute
}

func collectingHandler() (ConnectionHandler, <-chan acceptedConn) {
	accepted := make(chan acceptedConn, 8)
	return func(conn net.Conn, route protocol.TransportRoute) {
		accepted <- acceptedConn{conn: conn, route: route}
	}, accepted
}

func TestTCPListener_Address(t *testing.T) {
	listener, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener() error: %v", err)
	}
	defer listener.Close()

	if address := listener.Address(); !strings.HasPrefix(address, "127.0.0.1:") {
		t.Errorf("Address() = %q, want 127.0.0.1:port", address)
	}
}

func TestTCPListener_DeliversConnectionWithDirectRoute(t *testing.T) {
	listener, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener() error: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler, accepted := collectingHandler()
	go listener.Serve(ctx, handler)

	dialer := &TCPDialer{Timeout: 5 * time.Second}
	clientConn, err := dialer.DialContext(ctx, listener.Address())
	if err != nil {
		t.Fatalf("DialContext() error: %v", err)
	}
	defer clientConn.Close()

	var serverSide acceptedConn
	select {
	case serverSide = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
	defer serverSide.conn.Close()

	if serverSide.route.Type != protocol.RouteDirect {
		t.Errorf("route type = %s, want direct", serverSide.route.Type)
	}
	if serverSide.route.RemoteAddress != clientConn.LocalAddr().String() {
		t.Errorf("route remote = %q, want %q", serverSide.route.RemoteAddress, clientConn.LocalAddr())
	}
	if serverSide.route.LocalAddress != listener.Address() {
		t.Errorf("route local = %q, want %q", serverSide.route.LocalAddress, listener.Address())
	}

	if _, err := clientConn.Write([]byte("ping")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	buffer := make([]byte, 4)
	if _, err := io.ReadFull(serverSide.conn, buffer); err != nil {
		t.Fatalf("ReadFull() error: %v", err)
	}
	if string(buffer) != "ping" {
		t.Errorf("server read %q, want %q", buffer, "ping")
	}
}

func TestTCPDialer_ConnectionRefused(t *testing.T) {
	dialer := &TCPDialer{Timeout: time.Second}

	// Port 1 is almost certainly not listening.
	if _, err := dialer.DialContext(context.Background(), "127.0.0.1:1"); err == nil {
		t.Error("expected error connecting to non-listening port")
	}
}

func TestTCPDialer_ContextCancellation(t *testing.T) {
	dialer := &TCPDialer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := dialer.DialContext(ctx, "127.0.0.1:1"); err == nil {
		t.Error("expected error with cancelled context")
	}
}

func TestTCPListener_ContextCancellation(t *testing.T) {
	listener, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener() error: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		handler, _ := collectingHandler()
		done <- listener.Serve(ctx, handler)
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("Serve() did not return after context cancellation")
	}
}

func TestTCPListener_CloseIsIdempotent(t *testing.T) {
	listener, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener() error: %v", err)
	}
	if err := listener.Close(); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := listener.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	handler, _ := collectingHandler()
	if err := listener.Serve(context.Background(), handler); err != nil {
		t.Errorf("Serve() after Close returned %v, want nil", err)
	}
}
