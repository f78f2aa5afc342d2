// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import "github.com/bureau-foundation/remotedesk/protocol"

// maxPendingPositions bounds how many injected positions are remembered
// while waiting for the local pointer to report them back.
const maxPendingPositions = 16

// RemoteInputFilter forwards every event unchanged and keeps the state
// needed to tell local pointer activity apart from echoes of injected
// movement. Each positioned mouse event it forwards is remembered as
// pending. When the local pointer later reports a position matching a
// pending one, that report is an echo and the pending positions up to
// and including it are consumed. Any other report is local activity.
//
// No event is ever dropped here.
type RemoteInputFilter struct {
	inputStub protocol.InputStub

	pendingPositions []protocol.Point

	lastLocalPosition    protocol.Point
	hasLocalPosition     bool
	localActivityCount   int
	echoedPositionsCount int
}

// NewRemoteInputFilter returns a filter forwarding to inputStub.
func NewRemoteInputFilter(inputStub protocol.InputStub) *RemoteInputFilter {
	return &RemoteInputFilter{inputStub: inputStub}
}

// SetInputStub replaces the stage events are forwarded to.
func (f *RemoteInputFilter) SetInputStub(inputStub protocol.InputStub) {
	f.inputStub = inputStub
}

// LocalMouseMoved records a pointer position reported by the host's
// local input monitor and reports whether it was an echo of injected
// movement.
func (f *RemoteInputFilter) LocalMouseMoved(position protocol.Point) bool {
	f.lastLocalPosition = position
	f.hasLocalPosition = true
	for index, pending := range f.pendingPositions {
		if pending == position {
			f.pendingPositions = f.pendingPositions[index+1:]
			f.echoedPositionsCount++
			return true
		}
	}
	f.pendingPositions = f.pendingPositions[:0]
	f.localActivityCount++
	return false
}

// LastLocalPosition returns the most recent local pointer position and
// whether one has been reported.
func (f *RemoteInputFilter) LastLocalPosition() (protocol.Point, bool) {
	return f.lastLocalPosition, f.hasLocalPosition
}

// LocalActivityCount returns how many local pointer reports were not
// echoes of injected movement.
func (f *RemoteInputFilter) LocalActivityCount() int {
	return f.localActivityCount
}

// EchoCount returns how many local pointer reports matched injected
// movement.
func (f *RemoteInputFilter) EchoCount() int {
	return f.echoedPositionsCount
}

func (f *RemoteInputFilter) InjectKeyEvent(event protocol.KeyEvent) {
	if f.inputStub != nil {
		f.inputStub.InjectKeyEvent(event)
	}
}

func (f *RemoteInputFilter) InjectMouseEvent(event protocol.MouseEvent) {
	if position, ok := event.Position(); ok {
		if len(f.pendingPositions) == maxPendingPositions {
			f.pendingPositions = f.pendingPositions[1:]
		}
		f.pendingPositions = append(f.pendingPositions, position)
	}
	if f.inputStub != nil {
		f.inputStub.InjectMouseEvent(event)
	}
}
