// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

// InputStub receives key and mouse events.
type InputStub interface {
	InjectKeyEvent(event KeyEvent)
	InjectMouseEvent(event MouseEvent)
}

// ClipboardStub receives clipboard events.
type ClipboardStub interface {
	InjectClipboardEvent(event ClipboardEvent)
}

// HostEventStub is the terminal sink on the host: the local input and
// clipboard surface.
type HostEventStub interface {
	InputStub
	ClipboardStub
}

// HostStub receives the client's control messages that are neither input
// nor clipboard.
type HostStub interface {
	NotifyClientDimensions(dimensions ClientDimensions)
	ControlVideo(control VideoControl)
}

// ClientStub delivers host-originated messages to the client.
type ClientStub interface {
	ClipboardStub
}

// ConnectionToClient is the host's handle on one client connection. All
// methods are called on the host's sequence.
type ConnectionToClient interface {
	// SetEventHandler registers the receiver of lifecycle callbacks.
	// Must be called before the connection starts.
	SetEventHandler(handler ConnectionEventHandler)

	// SetInputStub, SetClipboardStub and SetHostStub register the sinks
	// that client-originated messages are dispatched to.
	SetInputStub(stub InputStub)
	SetClipboardStub(stub ClipboardStub)
	SetHostStub(stub HostStub)

	// ClientStub returns the sink for messages sent to the client.
	ClientStub() ClientStub

	// ClientID identifies the client at the transport level (for
	// example its remote address). Available before authentication.
	ClientID() string

	// Disconnect closes the connection. It reports OnConnectionClosed
	// to the event handler synchronously, before returning, unless the
	// connection was already closed.
	Disconnect()
}

// ConnectionEventHandler receives lifecycle callbacks from a connection,
// on the host's sequence, in the order the connection emits them.
type ConnectionEventHandler interface {
	OnConnectionAuthenticated(connection ConnectionToClient)
	OnConnectionChannelsConnected(connection ConnectionToClient)
	OnConnectionClosed(connection ConnectionToClient, code ErrorCode)
	OnSequenceNumberUpdated(connection ConnectionToClient, sequenceNumber int64)
	OnRouteChange(connection ConnectionToClient, channelName string, route TransportRoute)
}
