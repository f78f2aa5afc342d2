// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bureau-foundation/remotedesk/lib/sequence"
	"github.com/bureau-foundation/remotedesk/lib/testutil"
	"github.com/bureau-foundation/remotedesk/protocol"
)

// fakeConnection is a ConnectionToClient driven directly by tests.
// Disconnect reports the close synchronously, like the real connection.
type fakeConnection struct {
	clientID string

	handler       protocol.ConnectionEventHandler
	inputStub     protocol.InputStub
	clipboardStub protocol.ClipboardStub
	hostStub      protocol.HostStub
	clientStub    *recordingStub

	disconnectCalls int
	closed          bool
}

func newFakeConnection(clientID string) *fakeConnection {
	return &fakeConnection{clientID: clientID, clientStub: &recordingStub{}}
}

func (c *fakeConnection) SetEventHandler(handler protocol.ConnectionEventHandler) { c.handler = handler }
func (c *fakeConnection) SetInputStub(stub protocol.InputStub)                    { c.inputStub = stub }
func (c *fakeConnection) SetClipboardStub(stub protocol.ClipboardStub)            { c.clipboardStub = stub }
func (c *fakeConnection) SetHostStub(stub protocol.HostStub)                      { c.hostStub = stub }
func (c *fakeConnection) ClientStub() protocol.ClientStub                         { return c.clientStub }
func (c *fakeConnection) ClientID() string                                        { return c.clientID }

func (c *fakeConnection) Disconnect() {
	c.disconnectCalls++
	c.close(protocol.OK)
}

// close reports a close to the handler once.
func (c *fakeConnection) close(code protocol.ErrorCode) {
	if c.closed {
		return
	}
	c.closed = true
	if c.handler != nil {
		c.handler.OnConnectionClosed(c, code)
	}
}

// connect drives the connection through authentication and channel
// setup.
func (c *fakeConnection) connect() {
	c.handler.OnConnectionAuthenticated(c)
	c.handler.OnConnectionChannelsConnected(c)
}

// recordingStub is a HostEventStub and ClientStub that records every
// event.
type recordingStub struct {
	keys      []protocol.KeyEvent
	mice      []protocol.MouseEvent
	clipboard []protocol.ClipboardEvent
}

func (r *recordingStub) InjectKeyEvent(event protocol.KeyEvent)     { r.keys = append(r.keys, event) }
func (r *recordingStub) InjectMouseEvent(event protocol.MouseEvent) { r.mice = append(r.mice, event) }
func (r *recordingStub) InjectClipboardEvent(event protocol.ClipboardEvent) {
	r.clipboard = append(r.clipboard, event)
}

func (r *recordingStub) total() int {
	return len(r.keys) + len(r.mice) + len(r.clipboard)
}

// recordingHandler is an EventHandler that records notification names
// in order. onAuthenticated, when set, runs inside
// OnSessionAuthenticated.
type recordingHandler struct {
	events          []string
	onAuthenticated func(session *ClientSession)
}

func (h *recordingHandler) OnSessionAuthenticated(session *ClientSession) {
	h.events = append(h.events, "authenticated")
	if h.onAuthenticated != nil {
		h.onAuthenticated(session)
	}
}

func (h *recordingHandler) OnSessionAuthenticationFailed(session *ClientSession) {
	h.events = append(h.events, "authentication_failed")
}

func (h *recordingHandler) OnSessionChannelsConnected(session *ClientSession) {
	h.events = append(h.events, "channels_connected")
}

func (h *recordingHandler) OnSessionClosed(session *ClientSession) {
	h.events = append(h.events, "closed")
}

func (h *recordingHandler) OnSessionSequenceNumber(session *ClientSession, sequenceNumber int64) {
	h.events = append(h.events, fmt.Sprintf("sequence_number:%d", sequenceNumber))
}

func (h *recordingHandler) OnSessionRouteChange(session *ClientSession, channelName string, route protocol.TransportRoute) {
	h.events = append(h.events, fmt.Sprintf("route:%s:%s", channelName, route.Type))
}

// recordingObserver is a StatusObserver that records events in order.
type recordingObserver struct {
	events []string
}

func (o *recordingObserver) OnAccessDenied(clientID string) {
	o.events = append(o.events, "access_denied:"+clientID)
}

func (o *recordingObserver) OnClientAuthenticated(clientID string) {
	o.events = append(o.events, "authenticated:"+clientID)
}

func (o *recordingObserver) OnClientConnected(clientID string) {
	o.events = append(o.events, "connected:"+clientID)
}

func (o *recordingObserver) OnClientDisconnected(clientID string) {
	o.events = append(o.events, "disconnected:"+clientID)
}

func (o *recordingObserver) OnClientRouteChange(clientID, channelName string, route protocol.TransportRoute) {
	o.events = append(o.events, "route:"+clientID+":"+channelName)
}

func (o *recordingObserver) OnShutdown() {
	o.events = append(o.events, "shutdown")
}

// startRunner runs a sequence.Runner for the duration of the test.
func startRunner(t *testing.T) *sequence.Runner {
	t.Helper()
	runner := sequence.NewRunner(0)
	ctx, cancel := context.WithCancel(context.Background())
	go runner.Run(ctx)
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, runner.Done(), 5*time.Second, "runner stopped")
	})
	return runner
}

// onRunner runs fn as a task on runner and waits for it. A panic inside
// fn fails the test instead of crashing the runner goroutine.
func onRunner(t *testing.T, runner *sequence.Runner, fn func()) {
	t.Helper()
	if recovered := invokeRecovering(t, runner, fn); recovered != nil {
		t.Fatalf("task panicked: %v", recovered)
	}
}

// requirePanicOnRunner runs fn on runner and fails the test unless it
// panics.
func requirePanicOnRunner(t *testing.T, runner *sequence.Runner, fn func()) {
	t.Helper()
	if recovered := invokeRecovering(t, runner, fn); recovered == nil {
		t.Fatal("expected a panic")
	}
}

func invokeRecovering(t *testing.T, runner *sequence.Runner, fn func()) (recovered any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := runner.Invoke(ctx, func() {
		defer func() { recovered = recover() }()
		fn()
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	return recovered
}

// sessionFixture bundles a session with its fakes.
type sessionFixture struct {
	runner     *sequence.Runner
	connection *fakeConnection
	hostStub   *recordingStub
	handler    *recordingHandler
	capturer   *StaticCapturer
	session    *ClientSession
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	fixture := &sessionFixture{
		runner:     startRunner(t),
		connection: newFakeConnection("client-1"),
		hostStub:   &recordingStub{},
		handler:    &recordingHandler{},
		capturer:   NewStaticCapturer(protocol.Size{Width: 800, Height: 600}),
	}
	onRunner(t, fixture.runner, func() {
		fixture.session = NewClientSession(SessionConfig{
			Runner:        fixture.runner,
			EventHandler:  fixture.handler,
			Connection:    fixture.connection,
			HostEventStub: fixture.hostStub,
			Capturer:      fixture.capturer,
			Logger:        testutil.DiscardLogger(),
		})
	})
	return fixture
}

// do runs fn on the fixture's runner.
func (f *sessionFixture) do(t *testing.T, fn func()) {
	t.Helper()
	onRunner(t, f.runner, fn)
}
