// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"log/slog"
	"slices"

	"github.com/bureau-foundation/remotedesk/lib/sequence"
	"github.com/bureau-foundation/remotedesk/protocol"
)

// StatusObserver is told about client lifecycle events, on the host's
// runner.
type StatusObserver interface {
	// OnAccessDenied reports a connection that closed without
	// authenticating.
	OnAccessDenied(clientID string)

	OnClientAuthenticated(clientID string)
	OnClientConnected(clientID string)

	// OnClientDisconnected reports that an authenticated client went
	// away.
	OnClientDisconnected(clientID string)

	OnClientRouteChange(clientID, channelName string, route protocol.TransportRoute)

	// OnShutdown is delivered once, after every session was asked to
	// disconnect.
	OnShutdown()
}

// Config holds a Host's collaborators. All fields are required except
// Logger.
type Config struct {
	Runner        *sequence.Runner
	HostEventStub protocol.HostEventStub
	Capturer      Capturer
	Logger        *slog.Logger
}

// Host owns the client sessions of one host process. A newly
// authenticated client disconnects every other session, so at most one
// client controls the host at a time.
type Host struct {
	runner        *sequence.Runner
	logger        *slog.Logger
	hostEventStub protocol.HostEventStub
	capturer      Capturer

	sessions  []*ClientSession
	observers []StatusObserver

	inputsDisabled bool
	shuttingDown   bool
}

// New creates a Host. It does not accept connections by itself; hand
// each incoming connection to OnIncomingConnection.
func New(config Config) *Host {
	if config.Runner == nil || config.HostEventStub == nil || config.Capturer == nil {
		panic("host: New requires Runner, HostEventStub and Capturer")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		runner:        config.Runner,
		logger:        logger,
		hostEventStub: config.HostEventStub,
		capturer:      config.Capturer,
	}
}

// AddStatusObserver registers observer for client lifecycle events.
func (h *Host) AddStatusObserver(observer StatusObserver) {
	h.runner.Check()
	h.observers = append(h.observers, observer)
}

// RemoveStatusObserver unregisters observer.
func (h *Host) RemoveStatusObserver(observer StatusObserver) {
	h.runner.Check()
	h.observers = slices.DeleteFunc(h.observers, func(registered StatusObserver) bool {
		return registered == observer
	})
}

// OnIncomingConnection creates a session for connection. While the host
// is shutting down the connection is disconnected instead and nil is
// returned.
func (h *Host) OnIncomingConnection(connection protocol.ConnectionToClient) *ClientSession {
	h.runner.Check()
	if h.shuttingDown {
		h.logger.Info("rejecting connection during shutdown", "client", connection.ClientID())
		connection.Disconnect()
		return nil
	}
	session := NewClientSession(SessionConfig{
		Runner:        h.runner,
		EventHandler:  h,
		Connection:    connection,
		HostEventStub: h.hostEventStub,
		Capturer:      h.capturer,
		Logger:        h.logger,
	})
	h.sessions = append(h.sessions, session)
	h.logger.Info("client connecting", "client", session.ClientID(), "sessions", len(h.sessions))
	return session
}

// Sessions returns a copy of the current sessions.
func (h *Host) Sessions() []*ClientSession {
	h.runner.Check()
	return slices.Clone(h.sessions)
}

// LocalMouseMoved passes a local pointer position to every session.
func (h *Host) LocalMouseMoved(position protocol.Point) {
	h.runner.Check()
	for _, session := range h.sessions {
		session.LocalMouseMoved(position)
	}
}

// SetDisableInputs blocks or unblocks client input on every session, for
// example while the local user takes over. Sessions that finish
// connecting later inherit the setting.
func (h *Host) SetDisableInputs(disable bool) {
	h.runner.Check()
	h.inputsDisabled = disable
	for _, session := range h.sessions {
		if session.State() == StateChannelsConnected {
			session.SetDisableInputs(disable)
		}
	}
}

// InjectClipboardEvent sends a host clipboard change to every connected
// client.
func (h *Host) InjectClipboardEvent(event protocol.ClipboardEvent) {
	h.runner.Check()
	// A failed write closes the session, which removes it from h.sessions.
	for _, session := range slices.Clone(h.sessions) {
		if session.State() == StateChannelsConnected {
			session.ClientClipboardStub().InjectClipboardEvent(event)
		}
	}
}

// Shutdown disconnects every session, refuses further connections and
// notifies observers. Later calls do nothing.
func (h *Host) Shutdown() {
	h.runner.Check()
	if h.shuttingDown {
		return
	}
	h.shuttingDown = true
	h.logger.Info("host shutting down", "sessions", len(h.sessions))

	// Disconnecting removes the session from h.sessions.
	for _, session := range slices.Clone(h.sessions) {
		session.Disconnect()
	}
	for _, observer := range slices.Clone(h.observers) {
		observer.OnShutdown()
	}
}

func (h *Host) OnSessionAuthenticated(session *ClientSession) {
	h.runner.Check()
	for _, other := range slices.Clone(h.sessions) {
		if other != session {
			h.logger.Info("disconnecting previous client", "client", other.ClientID(), "new_client", session.ClientID())
			other.Disconnect()
		}
	}
	for _, observer := range slices.Clone(h.observers) {
		observer.OnClientAuthenticated(session.ClientID())
	}
}

func (h *Host) OnSessionAuthenticationFailed(session *ClientSession) {
	h.runner.Check()
	for _, observer := range slices.Clone(h.observers) {
		observer.OnAccessDenied(session.ClientID())
	}
}

func (h *Host) OnSessionChannelsConnected(session *ClientSession) {
	h.runner.Check()
	if h.inputsDisabled {
		session.SetDisableInputs(true)
	}
	for _, observer := range slices.Clone(h.observers) {
		observer.OnClientConnected(session.ClientID())
	}
}

func (h *Host) OnSessionClosed(session *ClientSession) {
	h.runner.Check()
	h.sessions = slices.DeleteFunc(h.sessions, func(existing *ClientSession) bool {
		return existing == session
	})
	if !session.IsAuthenticated() {
		return
	}
	for _, observer := range slices.Clone(h.observers) {
		observer.OnClientDisconnected(session.ClientID())
	}
}

func (h *Host) OnSessionSequenceNumber(session *ClientSession, sequenceNumber int64) {
	h.runner.Check()
	h.logger.Debug("client sequence number", "client", session.ClientID(), "sequence_number", sequenceNumber)
}

func (h *Host) OnSessionRouteChange(session *ClientSession, channelName string, route protocol.TransportRoute) {
	h.runner.Check()
	for _, observer := range slices.Clone(h.observers) {
		observer.OnClientRouteChange(session.ClientID(), channelName, route)
	}
}
