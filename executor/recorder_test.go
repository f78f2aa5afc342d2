// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import "github.com/bureau-foundation/remotedesk/protocol"

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

func keyDown(keycode uint32) protocol.KeyEvent {
	return protocol.KeyEvent{USBKeycode: keycode, Pressed: true}
}

func keyUp(keycode uint32) protocol.KeyEvent {
	return protocol.KeyEvent{USBKeycode: keycode}
}
