// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"maps"
	"slices"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// InputEventTracker records which keys and mouse buttons are down as
// events pass through it unchanged. ReleaseAll lifts all of them, so a
// session that ends mid-keystroke does not leave keys held on the host.
type InputEventTracker struct {
	inputStub protocol.InputStub

	pressedKeys map[uint32]struct{}

	// mouseButtons has bit (button-1) set for each pressed button.
	mouseButtons uint32

	// mousePosition is the last pointer position seen. Synthesized
	// button releases are sent there.
	mousePosition protocol.Point
}

// NewInputEventTracker returns a tracker forwarding to inputStub.
func NewInputEventTracker(inputStub protocol.InputStub) *InputEventTracker {
	return &InputEventTracker{
		inputStub:   inputStub,
		pressedKeys: make(map[uint32]struct{}),
	}
}

// SetInputStub replaces the stage events are forwarded to.
func (t *InputEventTracker) SetInputStub(inputStub protocol.InputStub) {
	t.inputStub = inputStub
}

// IsKeyPressed reports whether the key with the given USB keycode is down.
func (t *InputEventTracker) IsKeyPressed(usbKeycode uint32) bool {
	_, pressed := t.pressedKeys[usbKeycode]
	return pressed
}

// PressedKeyCount returns the number of keys that are down.
func (t *InputEventTracker) PressedKeyCount() int {
	return len(t.pressedKeys)
}

// PressedButtons returns the mouse buttons that are down, lowest first.
func (t *InputEventTracker) PressedButtons() []protocol.MouseButton {
	var buttons []protocol.MouseButton
	for button := protocol.ButtonLeft; button < protocol.ButtonMax; button++ {
		if t.mouseButtons&buttonMask(button) != 0 {
			buttons = append(buttons, button)
		}
	}
	return buttons
}

// IsEmpty reports whether no key or button is down.
func (t *InputEventTracker) IsEmpty() bool {
	return len(t.pressedKeys) == 0 && t.mouseButtons == 0
}

func (t *InputEventTracker) InjectKeyEvent(event protocol.KeyEvent) {
	if event.Pressed {
		t.pressedKeys[event.USBKeycode] = struct{}{}
	} else {
		delete(t.pressedKeys, event.USBKeycode)
	}
	if t.inputStub != nil {
		t.inputStub.InjectKeyEvent(event)
	}
}

func (t *InputEventTracker) InjectMouseEvent(event protocol.MouseEvent) {
	if position, ok := event.Position(); ok {
		t.mousePosition = position
	}
	if event.Button > protocol.ButtonUndefined && event.Button < protocol.ButtonMax {
		if event.ButtonDown {
			t.mouseButtons |= buttonMask(event.Button)
		} else {
			t.mouseButtons &^= buttonMask(event.Button)
		}
	}
	if t.inputStub != nil {
		t.inputStub.InjectMouseEvent(event)
	}
}

// ReleaseAll sends a release for every pressed key, in keycode order,
// then for every pressed button at the last pointer position, and clears
// the recorded state. Does nothing when nothing is pressed.
func (t *InputEventTracker) ReleaseAll() {
	keys := slices.Sorted(maps.Keys(t.pressedKeys))
	buttons := t.PressedButtons()
	clear(t.pressedKeys)
	t.mouseButtons = 0

	if t.inputStub == nil {
		return
	}
	for _, usbKeycode := range keys {
		t.inputStub.InjectKeyEvent(protocol.KeyEvent{USBKeycode: usbKeycode, Pressed: false})
	}
	for _, button := range buttons {
		release := protocol.MouseEvent{Button: button, ButtonDown: false}
		t.inputStub.InjectMouseEvent(release.WithPosition(t.mousePosition))
	}
}

func buttonMask(button protocol.MouseButton) uint32 {
	return 1 << (uint32(button) - 1)
}
