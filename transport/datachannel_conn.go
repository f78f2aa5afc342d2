// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// Compile-time interface check.
var _ net.Conn = (*DataChannelConn)(nil)

// DataChannelConn presents a detached pion data channel as a net.Conn.
// SCTP reassembles messages, so the channel behaves as an ordered byte
// stream, which is all the client protocol needs.
//
// A detached channel has no native deadlines. When a deadline passes the
// stream is closed, which unblocks pending I/O; Read and Write then
// report os.ErrDeadlineExceeded. The connection is unusable afterwards,
// which is acceptable because the client protocol only sets deadlines
// around the handshake and treats expiry as fatal.
type DataChannelConn struct {
	rwc        io.ReadWriteCloser
	localAddr  net.Addr
	remoteAddr net.Addr

	// onClose, when set, runs once after the stream is closed. The
	// WebRTC transport uses it to tear down the PeerConnection that
	// carried the channel.
	onClose func()

	mu         sync.Mutex
	readTimer  *time.Timer
	writeTimer *time.Timer
	expired    bool

	closeOnce sync.Once
	closeErr  error
}

// NewDataChannelConn wraps a detached data channel. The labels name the
// local and remote endpoints in LocalAddr and RemoteAddr. onClose may be
// nil.
func NewDataChannelConn(rwc io.ReadWriteCloser, localLabel, remoteLabel string, onClose func()) *DataChannelConn {
	return &DataChannelConn{
		rwc:        rwc,
		localAddr:  &dataChannelAddr{label: localLabel},
		remoteAddr: &dataChannelAddr{label: remoteLabel},
		onClose:    onClose,
	}
}

func (c *DataChannelConn) Read(buffer []byte) (int, error) {
	count, err := c.rwc.Read(buffer)
	if err != nil && c.deadlineExpired() {
		return count, os.ErrDeadlineExceeded
	}
	return count, err
}

func (c *DataChannelConn) Write(buffer []byte) (int, error) {
	count, err := c.rwc.Write(buffer)
	if err != nil && c.deadlineExpired() {
		return count, os.ErrDeadlineExceeded
	}
	return count, err
}

// Close closes the stream and runs the onClose hook. Later calls return
// the first call's result.
func (c *DataChannelConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		stopTimer(&c.readTimer)
		stopTimer(&c.writeTimer)
		c.mu.Unlock()
		c.closeErr = c.rwc.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return c.closeErr
}

func (c *DataChannelConn) LocalAddr() net.Addr  { return c.localAddr }
func (c *DataChannelConn) RemoteAddr() net.Addr { return c.remoteAddr }

// SetDeadline sets both deadlines. A zero value clears them.
func (c *DataChannelConn) SetDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armLocked(&c.readTimer, deadline)
	c.armLocked(&c.writeTimer, deadline)
	return nil
}

func (c *DataChannelConn) SetReadDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armLocked(&c.readTimer, deadline)
	return nil
}

func (c *DataChannelConn) SetWriteDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armLocked(&c.writeTimer, deadline)
	return nil
}

// armLocked replaces *timer with one that expires the connection at
// deadline. Must be called with c.mu held.
func (c *DataChannelConn) armLocked(timer **time.Timer, deadline time.Time) {
	stopTimer(timer)
	if deadline.IsZero() || c.expired {
		return
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		c.expireLocked()
		return
	}
	*timer = time.AfterFunc(remaining, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.expireLocked()
	})
}

func (c *DataChannelConn) expireLocked() {
	if c.expired {
		return
	}
	c.expired = true
	c.rwc.Close()
}

func (c *DataChannelConn) deadlineExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

func stopTimer(timer **time.Timer) {
	if *timer != nil {
		(*timer).Stop()
		*timer = nil
	}
}

// dataChannelAddr is a synthetic net.Addr for data channel endpoints.
type dataChannelAddr struct {
	label string
}

func (a *dataChannelAddr) Network() string { return "webrtc" }
func (a *dataChannelAddr) String() string  { return a.label }
