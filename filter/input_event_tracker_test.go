// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"slices"
	"testing"

	"github.com/bureau-foundation/remotedesk/protocol"
)

func TestInputEventTrackerTracksKeys(t *testing.T) {
	t.Parallel()
	sink := &recorder{}
	tracker := NewInputEventTracker(sink)

	tracker.InjectKeyEvent(keyDown(0x070004))
	tracker.InjectKeyEvent(keyDown(0x070005))
	tracker.InjectKeyEvent(keyDown(0x070004))
	tracker.InjectKeyEvent(keyUp(0x070005))

	if !tracker.IsKeyPressed(0x070004) {
		t.Error("0x070004 should be pressed")
	}
	if tracker.IsKeyPressed(0x070005) {
		t.Error("0x070005 should be released")
	}
	if got := tracker.PressedKeyCount(); got != 1 {
		t.Errorf("PressedKeyCount: got %d, want 1", got)
	}
	if len(sink.keys) != 4 {
		t.Errorf("forwarded keys: got %d, want 4", len(sink.keys))
	}
}

func TestInputEventTrackerTracksButtons(t *testing.T) {
	t.Parallel()
	tracker := NewInputEventTracker(&recorder{})

	tracker.InjectMouseEvent(protocol.MouseEvent{Button: protocol.ButtonRight, ButtonDown: true})
	tracker.InjectMouseEvent(protocol.MouseEvent{Button: protocol.ButtonLeft, ButtonDown: true})
	tracker.InjectMouseEvent(protocol.MouseEvent{Button: protocol.ButtonRight, ButtonDown: false})
	// Out-of-range buttons are forwarded but not tracked.
	tracker.InjectMouseEvent(protocol.MouseEvent{Button: protocol.MouseButton(9), ButtonDown: true})

	want := []protocol.MouseButton{protocol.ButtonLeft}
	if got := tracker.PressedButtons(); !slices.Equal(got, want) {
		t.Errorf("PressedButtons: got %v, want %v", got, want)
	}
}

func TestInputEventTrackerReleaseAll(t *testing.T) {
	t.Parallel()
	sink := &recorder{}
	tracker := NewInputEventTracker(sink)

	tracker.InjectKeyEvent(keyDown(0x0700e0))
	tracker.InjectKeyEvent(keyDown(0x070004))
	tracker.InjectMouseEvent(mouseAt(40, 50))
	tracker.InjectMouseEvent(protocol.MouseEvent{Button: protocol.ButtonLeft, ButtonDown: true})
	tracker.InjectMouseEvent(protocol.MouseEvent{Button: protocol.ButtonMiddle, ButtonDown: true})
	sink.keys, sink.mice = nil, nil

	tracker.ReleaseAll()

	wantKeys := []protocol.KeyEvent{keyUp(0x070004), keyUp(0x0700e0)}
	if !slices.Equal(sink.keys, wantKeys) {
		t.Errorf("released keys: got %+v, want %+v", sink.keys, wantKeys)
	}
	wantMice := []protocol.MouseEvent{
		protocol.MouseEvent{Button: protocol.ButtonLeft}.WithPosition(protocol.Point{X: 40, Y: 50}),
		protocol.MouseEvent{Button: protocol.ButtonMiddle}.WithPosition(protocol.Point{X: 40, Y: 50}),
	}
	if !slices.Equal(sink.mice, wantMice) {
		t.Errorf("released buttons: got %+v, want %+v", sink.mice, wantMice)
	}
	if !tracker.IsEmpty() {
		t.Error("tracker should be empty after ReleaseAll")
	}

	sink.keys, sink.mice = nil, nil
	tracker.ReleaseAll()
	if len(sink.keys) != 0 || len(sink.mice) != 0 {
		t.Error("second ReleaseAll should send nothing")
	}
}

func TestInputEventTrackerReleaseAllWithoutStub(t *testing.T) {
	t.Parallel()
	tracker := NewInputEventTracker(nil)
	tracker.InjectKeyEvent(keyDown(0x070004))
	tracker.ReleaseAll()
	if !tracker.IsEmpty() {
		t.Error("ReleaseAll must clear state even with no stub")
	}
}
