// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"github.com/bureau-foundation/remotedesk/protocol"
)

// USB HID usages of the keys that make up the secure attention
// sequence.
const (
	usbLeftControl  uint32 = 0x0700e0
	usbLeftAlt      uint32 = 0x0700e2
	usbRightControl uint32 = 0x0700e4
	usbRightAlt     uint32 = 0x0700e6
	usbDelete       uint32 = 0x07004c
)

var _ protocol.InputStub = (*SecureAttention)(nil)

// SecureAttention forwards input to another sink and calls a handler
// when Delete is pressed while the only keys held are Control and Alt
// (at least one of each). The Delete press is still forwarded.
type SecureAttention struct {
	next        protocol.InputStub
	onAttention func()
	pressedKeys map[uint32]struct{}
}

// NewSecureAttention wraps next. onAttention runs synchronously on the
// caller's goroutine.
func NewSecureAttention(next protocol.InputStub, onAttention func()) *SecureAttention {
	return &SecureAttention{
		next:        next,
		onAttention: onAttention,
		pressedKeys: make(map[uint32]struct{}),
	}
}

func (s *SecureAttention) InjectKeyEvent(event protocol.KeyEvent) {
	if event.Pressed {
		if event.USBKeycode == usbDelete && s.onlyControlAndAltPressed() && s.onAttention != nil {
			s.onAttention()
		}
		s.pressedKeys[event.USBKeycode] = struct{}{}
	} else {
		delete(s.pressedKeys, event.USBKeycode)
	}
	s.next.InjectKeyEvent(event)
}

func (s *SecureAttention) InjectMouseEvent(event protocol.MouseEvent) {
	s.next.InjectMouseEvent(event)
}

func (s *SecureAttention) onlyControlAndAltPressed() bool {
	var control, alt int
	for keycode := range s.pressedKeys {
		switch keycode {
		case usbLeftControl, usbRightControl:
			control++
		case usbLeftAlt, usbRightAlt:
			alt++
		default:
			return false
		}
	}
	return control > 0 && alt > 0
}
