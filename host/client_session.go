// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/remotedesk/filter"
	"github.com/bureau-foundation/remotedesk/lib/sequence"
	"github.com/bureau-foundation/remotedesk/protocol"
)

// State is a ClientSession's position in its lifecycle. States only
// advance.
type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateChannelsConnected
	StateClosed
)

func (state State) String() string {
	switch state {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateChannelsConnected:
		return "channels_connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(state))
	}
}

// EventHandler receives a session's lifecycle notifications, on the
// session's runner. OnSessionClosed is delivered once per session, and
// nothing is delivered after it.
type EventHandler interface {
	OnSessionAuthenticated(session *ClientSession)

	// OnSessionAuthenticationFailed is delivered, immediately before
	// OnSessionClosed, when the connection closes before the client
	// authenticated.
	OnSessionAuthenticationFailed(session *ClientSession)

	OnSessionChannelsConnected(session *ClientSession)
	OnSessionClosed(session *ClientSession)
	OnSessionSequenceNumber(session *ClientSession, sequenceNumber int64)
	OnSessionRouteChange(session *ClientSession, channelName string, route protocol.TransportRoute)
}

// Capturer reports the size of the most recently captured frame. The
// session asks for it before every mouse event.
type Capturer interface {
	SizeMostRecent() protocol.Size
}

// SessionConfig holds a ClientSession's collaborators. All fields are
// required except Logger.
type SessionConfig struct {
	Runner        *sequence.Runner
	EventHandler  EventHandler
	Connection    protocol.ConnectionToClient
	HostEventStub protocol.HostEventStub
	Capturer      Capturer
	Logger        *slog.Logger
}

// ClientSession controls one client connection. It implements
// protocol.ConnectionEventHandler, protocol.InputStub,
// protocol.ClipboardStub and protocol.HostStub; the connection is wired
// to deliver to it at construction.
//
// Client input travels:
//
//	auth gate -> disable gate -> mouse filter -> remote input filter
//	-> input tracker -> host event stub
//
// and client clipboard events:
//
//	auth gate -> disable gate -> echo filter -> host event stub
//
// Host clipboard changes enter through ClientClipboardStub and reach the
// client only while the session is authenticated.
type ClientSession struct {
	runner       *sequence.Runner
	logger       *slog.Logger
	eventHandler EventHandler
	connection   protocol.ConnectionToClient
	capturer     Capturer
	clientID     string

	state         State
	authenticated bool

	authInputFilter    *filter.InputFilter
	disableInputFilter *filter.InputFilter
	mouseInputFilter   *filter.MouseInputFilter
	remoteInputFilter  *filter.RemoteInputFilter
	inputTracker       *filter.InputEventTracker

	authClipboardFilter    *filter.ClipboardFilter
	disableClipboardFilter *filter.ClipboardFilter
	clipboardEchoFilter    *filter.ClipboardEchoFilter
}

// NewClientSession builds the filter pipeline for connection and
// registers the session as the connection's event handler and stubs.
// Must be called on config.Runner. Both gates start closed.
func NewClientSession(config SessionConfig) *ClientSession {
	if config.Runner == nil || config.EventHandler == nil || config.Connection == nil ||
		config.HostEventStub == nil || config.Capturer == nil {
		panic("host: NewClientSession requires Runner, EventHandler, Connection, HostEventStub and Capturer")
	}
	config.Runner.Check()

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clientID := config.Connection.ClientID()

	session := &ClientSession{
		runner:       config.Runner,
		logger:       logger.With("client", clientID),
		eventHandler: config.EventHandler,
		connection:   config.Connection,
		capturer:     config.Capturer,
		clientID:     clientID,
		state:        StateConnecting,
	}

	session.inputTracker = filter.NewInputEventTracker(config.HostEventStub)
	session.remoteInputFilter = filter.NewRemoteInputFilter(session.inputTracker)
	session.mouseInputFilter = filter.NewMouseInputFilter(session.remoteInputFilter)
	session.disableInputFilter = filter.NewInputFilter(nil)
	session.authInputFilter = filter.NewInputFilter(nil)

	session.clipboardEchoFilter = filter.NewClipboardEchoFilter()
	session.clipboardEchoFilter.SetHostStub(config.HostEventStub)
	session.disableClipboardFilter = filter.NewClipboardFilter(nil)
	session.authClipboardFilter = filter.NewClipboardFilter(nil)

	config.Connection.SetEventHandler(session)
	config.Connection.SetInputStub(session)
	config.Connection.SetClipboardStub(session)
	config.Connection.SetHostStub(session)
	return session
}

// ClientID returns the connection's client identifier.
func (s *ClientSession) ClientID() string {
	return s.clientID
}

// State returns the session's lifecycle state.
func (s *ClientSession) State() State {
	s.runner.Check()
	return s.state
}

// IsAuthenticated reports whether the client ever authenticated. It
// stays true after the session closes.
func (s *ClientSession) IsAuthenticated() bool {
	s.runner.Check()
	return s.authenticated
}

// ClientClipboardStub returns the entry point for host clipboard changes
// travelling to the client. Values the client itself just sent are not
// echoed back.
func (s *ClientSession) ClientClipboardStub() protocol.ClipboardStub {
	return s.clipboardEchoFilter.ClientFilter()
}

// Disconnect closes the connection. The connection reports the close
// back through OnConnectionClosed before Disconnect returns.
func (s *ClientSession) Disconnect() {
	s.runner.Check()
	// The session is closed once this returns; nothing may follow it.
	s.connection.Disconnect()
}

// OnConnectionAuthenticated opens the auth gate and starts forwarding
// host clipboard changes to the client.
func (s *ClientSession) OnConnectionAuthenticated(connection protocol.ConnectionToClient) {
	if !s.beginTransition(connection, StateConnecting, "OnConnectionAuthenticated") {
		return
	}
	s.state = StateAuthenticated
	s.authenticated = true

	s.authInputFilter.SetInputStub(s.disableInputFilter)
	s.authClipboardFilter.SetClipboardStub(s.disableClipboardFilter)
	s.clipboardEchoFilter.SetClientStub(s.connection.ClientStub())

	s.logger.Info("client authenticated")
	s.eventHandler.OnSessionAuthenticated(s)
}

// OnConnectionChannelsConnected enables input.
func (s *ClientSession) OnConnectionChannelsConnected(connection protocol.ConnectionToClient) {
	if !s.beginTransition(connection, StateAuthenticated, "OnConnectionChannelsConnected") {
		return
	}
	s.state = StateChannelsConnected
	s.SetDisableInputs(false)

	s.logger.Info("client channels connected")
	s.eventHandler.OnSessionChannelsConnected(s)
}

// OnConnectionClosed closes the session. Any pressed keys and buttons
// are released before the handler hears OnSessionClosed.
func (s *ClientSession) OnConnectionClosed(connection protocol.ConnectionToClient, code protocol.ErrorCode) {
	s.runner.Check()
	s.checkConnection(connection)
	if s.state == StateClosed {
		return
	}
	wasAuthenticated := s.authenticated
	s.state = StateClosed

	s.authInputFilter.SetInputStub(nil)
	s.authClipboardFilter.SetClipboardStub(nil)
	s.clipboardEchoFilter.SetClientStub(nil)
	s.inputTracker.ReleaseAll()

	if wasAuthenticated {
		s.logger.Info("client disconnected", "code", code)
	} else {
		s.logger.Warn("client closed before authenticating", "code", code)
		s.eventHandler.OnSessionAuthenticationFailed(s)
	}
	s.eventHandler.OnSessionClosed(s)
}

// OnSequenceNumberUpdated relays the client's latest rendered frame.
func (s *ClientSession) OnSequenceNumberUpdated(connection protocol.ConnectionToClient, sequenceNumber int64) {
	s.runner.Check()
	s.checkConnection(connection)
	if s.state == StateClosed {
		return
	}
	s.eventHandler.OnSessionSequenceNumber(s, sequenceNumber)
}

// OnRouteChange relays a channel's new transport route.
func (s *ClientSession) OnRouteChange(connection protocol.ConnectionToClient, channelName string, route protocol.TransportRoute) {
	s.runner.Check()
	s.checkConnection(connection)
	if s.state == StateClosed {
		return
	}
	s.logger.Info("client route changed", "channel", channelName, "route", route.String())
	s.eventHandler.OnSessionRouteChange(s, channelName, route)
}

func (s *ClientSession) InjectKeyEvent(event protocol.KeyEvent) {
	s.runner.Check()
	s.authInputFilter.InjectKeyEvent(event)
}

// InjectMouseEvent refreshes the mouse filter from the capturer's current
// frame size, then routes the event.
func (s *ClientSession) InjectMouseEvent(event protocol.MouseEvent) {
	s.runner.Check()
	size := s.capturer.SizeMostRecent()
	s.mouseInputFilter.SetInputSize(size)
	s.mouseInputFilter.SetOutputSize(size)
	s.authInputFilter.InjectMouseEvent(event)
}

func (s *ClientSession) InjectClipboardEvent(event protocol.ClipboardEvent) {
	s.runner.Check()
	s.authClipboardFilter.InjectClipboardEvent(event)
}

func (s *ClientSession) NotifyClientDimensions(dimensions protocol.ClientDimensions) {
	s.runner.Check()
	s.logger.Debug("client dimensions", "width", dimensions.Width, "height", dimensions.Height)
}

func (s *ClientSession) ControlVideo(control protocol.VideoControl) {
	s.runner.Check()
	s.logger.Debug("client video control", "enable", control.Enable)
}

// SetDisableInputs blocks (true) or unblocks (false) client input and
// clipboard independently of authentication. Blocking releases anything
// the client holds pressed.
func (s *ClientSession) SetDisableInputs(disable bool) {
	s.runner.Check()
	if disable {
		s.disableInputFilter.SetInputStub(nil)
		s.disableClipboardFilter.SetClipboardStub(nil)
		s.inputTracker.ReleaseAll()
		return
	}
	s.disableInputFilter.SetInputStub(s.mouseInputFilter)
	s.disableClipboardFilter.SetClipboardStub(s.clipboardEchoFilter.HostFilter())
}

// LocalMouseMoved records a pointer position reported by the host's local
// input monitor.
func (s *ClientSession) LocalMouseMoved(position protocol.Point) {
	s.runner.Check()
	s.remoteInputFilter.LocalMouseMoved(position)
}

// beginTransition validates a lifecycle callback. It returns false when
// the session is already closed and the callback must be ignored, and
// panics when the callback arrives out of order.
func (s *ClientSession) beginTransition(connection protocol.ConnectionToClient, from State, callback string) bool {
	s.runner.Check()
	s.checkConnection(connection)
	if s.state == StateClosed {
		return false
	}
	if s.state != from {
		panic(fmt.Sprintf("host: %s in state %s, want %s", callback, s.state, from))
	}
	return true
}

func (s *ClientSession) checkConnection(connection protocol.ConnectionToClient) {
	if connection != s.connection {
		panic("host: callback from a connection the session does not own")
	}
}
