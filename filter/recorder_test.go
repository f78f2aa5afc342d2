// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import "github.com/bureau-foundation/remotedesk/protocol"

// recorder is a terminal stage that records everything it receives.
type recorder struct {
	keys      []protocol.KeyEvent
	mice      []protocol.MouseEvent
	clipboard []protocol.ClipboardEvent
}

func (r *recorder) InjectKeyEvent(event protocol.KeyEvent)     { r.keys = append(r.keys, event) }
func (r *recorder) InjectMouseEvent(event protocol.MouseEvent) { r.mice = append(r.mice, event) }
func (r *recorder) InjectClipboardEvent(event protocol.ClipboardEvent) {
	r.clipboard = append(r.clipboard, event)
}

func keyDown(usbKeycode uint32) protocol.KeyEvent {
	return protocol.KeyEvent{USBKeycode: usbKeycode, Pressed: true}
}

func keyUp(usbKeycode uint32) protocol.KeyEvent {
	return protocol.KeyEvent{USBKeycode: usbKeycode, Pressed: false}
}

func mouseAt(x, y int32) protocol.MouseEvent {
	return protocol.MouseEvent{}.WithPosition(protocol.Point{X: x, Y: y})
}
