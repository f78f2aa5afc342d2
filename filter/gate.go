// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import "github.com/bureau-foundation/remotedesk/protocol"

// InputFilter forwards key and mouse events to its input stub, or drops
// them when the stub is nil.
type InputFilter struct {
	inputStub protocol.InputStub
}

// NewInputFilter returns a gate forwarding to inputStub. Pass nil for a
// gate that starts closed.
func NewInputFilter(inputStub protocol.InputStub) *InputFilter {
	return &InputFilter{inputStub: inputStub}
}

// SetInputStub replaces the stage events are forwarded to. nil closes
// the gate.
func (f *InputFilter) SetInputStub(inputStub protocol.InputStub) {
	f.inputStub = inputStub
}

// InputStub returns the current next stage, nil when closed.
func (f *InputFilter) InputStub() protocol.InputStub {
	return f.inputStub
}

func (f *InputFilter) InjectKeyEvent(event protocol.KeyEvent) {
	if f.inputStub != nil {
		f.inputStub.InjectKeyEvent(event)
	}
}

func (f *InputFilter) InjectMouseEvent(event protocol.MouseEvent) {
	if f.inputStub != nil {
		f.inputStub.InjectMouseEvent(event)
	}
}

// ClipboardFilter forwards clipboard events to its clipboard stub, or
// drops them when the stub is nil.
type ClipboardFilter struct {
	clipboardStub protocol.ClipboardStub
}

// NewClipboardFilter returns a gate forwarding to clipboardStub. Pass nil
// for a gate that starts closed.
func NewClipboardFilter(clipboardStub protocol.ClipboardStub) *ClipboardFilter {
	return &ClipboardFilter{clipboardStub: clipboardStub}
}

// SetClipboardStub replaces the stage events are forwarded to. nil
// closes the gate.
func (f *ClipboardFilter) SetClipboardStub(clipboardStub protocol.ClipboardStub) {
	f.clipboardStub = clipboardStub
}

// ClipboardStub returns the current next stage, nil when closed.
func (f *ClipboardFilter) ClipboardStub() protocol.ClipboardStub {
	return f.clipboardStub
}

func (f *ClipboardFilter) InjectClipboardEvent(event protocol.ClipboardEvent) {
	if f.clipboardStub != nil {
		f.clipboardStub.InjectClipboardEvent(event)
	}
}
