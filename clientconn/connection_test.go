// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientconn

import (
	"context"
	"crypto/ed25519"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bureau-foundation/remotedesk/lib/sequence"
	"github.com/bureau-foundation/remotedesk/lib/testutil"
	"github.com/bureau-foundation/remotedesk/protocol"
)

const testTimeout = 5 * time.Second

// recordingHandler forwards lifecycle callbacks to a channel as strings.
type recordingHandler struct {
	events chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{events: make(chan string, 64)}
}

func (h *recordingHandler) OnConnectionAuthenticated(protocol.ConnectionToClient) {
	h.events <- "authenticated"
}

func (h *recordingHandler) OnConnectionChannelsConnected(protocol.ConnectionToClient) {
	h.events <- "channels_connected"
}

func (h *recordingHandler) OnConnectionClosed(_ protocol.ConnectionToClient, code protocol.ErrorCode) {
	h.events <- "closed:" + code.String()
}

func (h *recordingHandler) OnSequenceNumberUpdated(_ protocol.ConnectionToClient, sequenceNumber int64) {
	if sequenceNumber == 99 {
		h.events <- "sequence_number"
	}
}

func (h *recordingHandler) OnRouteChange(_ protocol.ConnectionToClient, channelName string, route protocol.TransportRoute) {
	h.events <- "route:" + channelName + ":" + route.Type.String()
}

func (h *recordingHandler) expect(t *testing.T, want ...string) {
	t.Helper()
	for _, event := range want {
		got := testutil.RequireReceive(t, h.events, testTimeout, "waiting for %s", event)
		if got != event {
			t.Fatalf("event: got %q, want %q", got, event)
		}
	}
}

// channelStubs forwards every injected event to a channel.
type channelStubs struct {
	events chan any
}

func (s *channelStubs) InjectKeyEvent(event protocol.KeyEvent)             { s.events <- event }
func (s *channelStubs) InjectMouseEvent(event protocol.MouseEvent)         { s.events <- event }
func (s *channelStubs) InjectClipboardEvent(event protocol.ClipboardEvent) { s.events <- event }
func (s *channelStubs) NotifyClientDimensions(d protocol.ClientDimensions) { s.events <- d }
func (s *channelStubs) ControlVideo(control protocol.VideoControl)         { s.events <- control }

type connectionFixture struct {
	runner     *sequence.Runner
	connection *Connection
	handler    *recordingHandler
	stubs      *channelStubs
	clientSide net.Conn
	privateKey ed25519.PrivateKey
}

func newConnectionFixture(t *testing.T, handshakeTimeout time.Duration) *connectionFixture {
	t.Helper()
	return newConfiguredFixture(t, func(config *Config) {
		config.HandshakeTimeout = handshakeTimeout
	})
}

// newConfiguredFixture builds a fixture whose Config is adjusted by
// configure before the connection is created.
func newConfiguredFixture(t *testing.T, configure func(*Config)) *connectionFixture {
	t.Helper()
	publicKey, privateKey := generateKey(t)
	keys, err := ParseAuthorizedKeys(authorizedKeyLine(t, publicKey, "operator"))
	if err != nil {
		t.Fatalf("ParseAuthorizedKeys: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runner := sequence.NewRunner(0)
	go runner.Run(ctx)

	hostSide, clientSide := net.Pipe()
	t.Cleanup(func() {
		clientSide.Close()
		cancel()
	})

	f := &connectionFixture{
		runner:     runner,
		handler:    newRecordingHandler(),
		stubs:      &channelStubs{events: make(chan any, 64)},
		clientSide: clientSide,
		privateKey: privateKey,
	}
	config := Config{
		HostID:        "host/test",
		Authenticator: keys,
		Logger:        testutil.DiscardLogger(),
	}
	configure(&config)
	f.connection = New(hostSide, protocol.TransportRoute{Type: protocol.RouteDirect}, runner, config)
	f.invoke(t, func() {
		f.connection.SetEventHandler(f.handler)
		f.connection.SetInputStub(f.stubs)
		f.connection.SetClipboardStub(f.stubs)
		f.connection.SetHostStub(f.stubs)
	})
	f.connection.Start(ctx)
	return f
}

func (f *connectionFixture) invoke(t *testing.T, task func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := f.runner.Invoke(ctx, task); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func (f *connectionFixture) handshake(t *testing.T, privateKey ed25519.PrivateKey) (*Client, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	return Handshake(ctx, f.clientSide, ClientConfig{
		Name:       "test-client",
		PrivateKey: privateKey,
		HostID:     "host/test",
	})
}

func TestConnectionDeliversClientMessages(t *testing.T) {
	t.Parallel()
	f := newConnectionFixture(t, testTimeout)

	client, err := f.handshake(t, f.privateKey)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if client.Identity() != "operator" {
		t.Errorf("Identity: got %q, want operator", client.Identity())
	}
	f.handler.expect(t, "authenticated", "channels_connected", "route:event:direct")

	key := protocol.KeyEvent{USBKeycode: 0x070004, Pressed: true}
	mouse := protocol.MouseEvent{Button: protocol.ButtonLeft, ButtonDown: true}.WithPosition(protocol.Point{X: 1, Y: 2})
	dimensions := protocol.ClientDimensions{Width: 1280, Height: 720}
	control := protocol.VideoControl{Enable: true}
	for _, send := range []func() error{
		func() error { return client.SendKeyEvent(key) },
		func() error { return client.SendMouseEvent(mouse) },
		func() error { return client.SendClientDimensions(dimensions) },
		func() error { return client.SendVideoControl(control) },
	} {
		if err := send(); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	for _, want := range []any{key, mouse, dimensions, control} {
		got := testutil.RequireReceive(t, f.stubs.events, testTimeout, "waiting for %T", want)
		if got != want {
			t.Errorf("delivered %+v, want %+v", got, want)
		}
	}

	if err := client.SendClipboardEvent(protocol.ClipboardEvent{MimeType: protocol.MimeTypeTextUTF8, Data: []byte("hi")}); err != nil {
		t.Fatalf("SendClipboardEvent: %v", err)
	}
	clipboard, ok := testutil.RequireReceive(t, f.stubs.events, testTimeout, "waiting for clipboard").(protocol.ClipboardEvent)
	if !ok || string(clipboard.Data) != "hi" {
		t.Errorf("clipboard: got %+v", clipboard)
	}

	if err := client.SendSequenceNumber(99); err != nil {
		t.Fatalf("SendSequenceNumber: %v", err)
	}
	f.handler.expect(t, "sequence_number")

	client.Close()
	f.handler.expect(t, "closed:ok")
}

func TestConnectionSendsClipboardToClient(t *testing.T) {
	t.Parallel()
	f := newConnectionFixture(t, testTimeout)
	client, err := f.handshake(t, f.privateKey)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	f.handler.expect(t, "authenticated", "channels_connected", "route:event:direct")

	// net.Pipe writes block until read, so start reading first.
	received := make(chan protocol.ClipboardEvent, 1)
	go func() {
		event, err := client.ReceiveClipboard()
		if err == nil {
			received <- event
		}
	}()
	f.invoke(t, func() {
		f.connection.ClientStub().InjectClipboardEvent(protocol.ClipboardEvent{MimeType: protocol.MimeTypeTextUTF8, Data: []byte("from host")})
	})
	event := testutil.RequireReceive(t, received, testTimeout, "waiting for clipboard at client")
	if string(event.Data) != "from host" {
		t.Errorf("client received %q, want %q", event.Data, "from host")
	}
}

func TestConnectionDisconnectsClientThatStopsReading(t *testing.T) {
	t.Parallel()
	f := newConnectionFixture(t, testTimeout)
	if _, err := f.handshake(t, f.privateKey); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	f.handler.expect(t, "authenticated", "channels_connected", "route:event:direct")

	// The client never reads again. The writer blocks on the first
	// message; the rest fill the queue until it overflows.
	f.invoke(t, func() {
		for index := 0; index < outboundQueueSize+2; index++ {
			f.connection.ClientStub().InjectClipboardEvent(protocol.ClipboardEvent{
				MimeType: protocol.MimeTypeTextUTF8,
				Data:     []byte("unread"),
			})
		}
	})
	f.handler.expect(t, "closed:channel_connection_error")
	testutil.RequireClosed(t, f.connection.Done(), testTimeout, "socket closed after overflow")

	// The runner is still serving tasks.
	f.invoke(t, func() {})
}

func TestConnectionWriteTimeout(t *testing.T) {
	t.Parallel()
	f := newConfiguredFixture(t, func(config *Config) {
		config.HandshakeTimeout = testTimeout
		config.WriteTimeout = 50 * time.Millisecond
	})
	if _, err := f.handshake(t, f.privateKey); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	f.handler.expect(t, "authenticated", "channels_connected", "route:event:direct")

	f.invoke(t, func() {
		f.connection.ClientStub().InjectClipboardEvent(protocol.ClipboardEvent{
			MimeType: protocol.MimeTypeTextUTF8,
			Data:     []byte("unread"),
		})
	})
	f.handler.expect(t, "closed:channel_connection_error")
	testutil.RequireClosed(t, f.connection.Done(), testTimeout, "socket closed after write timeout")
}

func TestConnectionRejectsUnknownKey(t *testing.T) {
	t.Parallel()
	f := newConnectionFixture(t, testTimeout)
	_, strangerKey := generateKey(t)

	if _, err := f.handshake(t, strangerKey); !errors.Is(err, ErrRejected) {
		t.Fatalf("Handshake: got %v, want ErrRejected", err)
	}
	f.handler.expect(t, "closed:authentication_failed")
	testutil.RequireClosed(t, f.connection.Done(), testTimeout, "socket closed after rejection")
}

func TestConnectionHandshakeTimeout(t *testing.T) {
	t.Parallel()
	f := newConnectionFixture(t, 50*time.Millisecond)
	// The client never reads the challenge.
	f.handler.expect(t, "closed:signaling_timeout")
}

func TestConnectionDisconnectReportsSynchronously(t *testing.T) {
	t.Parallel()
	f := newConnectionFixture(t, testTimeout)
	client, err := f.handshake(t, f.privateKey)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	f.handler.expect(t, "authenticated", "channels_connected", "route:event:direct")

	var reported int
	f.invoke(t, func() {
		f.connection.Disconnect()
		reported = len(f.handler.events)
		f.connection.Disconnect()
	})
	if reported != 1 {
		t.Fatalf("events queued when Disconnect returned: got %d, want 1", reported)
	}
	f.handler.expect(t, "closed:ok")

	if _, err := client.ReceiveClipboard(); err == nil {
		t.Error("client read should fail after disconnect")
	}
	// The reader's own close report is swallowed.
	select {
	case event := <-f.handler.events:
		t.Errorf("unexpected event after close: %s", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConnectionClosesOnUnexpectedMessage(t *testing.T) {
	t.Parallel()
	f := newConnectionFixture(t, testTimeout)
	if _, err := f.handshake(t, f.privateKey); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	f.handler.expect(t, "authenticated", "channels_connected", "route:event:direct")

	if err := protocol.WriteMessage(f.clientSide, protocol.Message{Type: protocol.MessageTypeChallenge}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	f.handler.expect(t, "closed:incompatible_protocol")
}

func TestClientRejectsWrongHost(t *testing.T) {
	t.Parallel()
	f := newConnectionFixture(t, testTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	_, err := Handshake(ctx, f.clientSide, ClientConfig{
		PrivateKey: f.privateKey,
		HostID:     "host/elsewhere",
	})
	if err == nil {
		t.Fatal("Handshake to the wrong host should fail")
	}
	// The client hangs up mid-handshake.
	f.handler.expect(t, "closed:channel_connection_error")
}
