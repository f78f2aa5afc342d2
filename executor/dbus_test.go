// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/bureau-foundation/remotedesk/lib/testutil"
	"github.com/bureau-foundation/remotedesk/protocol"
)

type recordedCall struct {
	method string
	args   []interface{}
}

type fakeSession struct {
	calls []recordedCall
	err   error
}

func (s *fakeSession) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	s.calls = append(s.calls, recordedCall{method: method, args: args})
	return &dbus.Call{Method: method, Args: args, Err: s.err}
}

const testStream = "/org/gnome/Mutter/ScreenCast/Stream/u1"

func newTestDBusExecutor() (*DBusExecutor, *fakeSession) {
	session := &fakeSession{}
	return newDBusExecutor(session, testStream, testutil.DiscardLogger()), session
}

func TestDBusExecutorKeyEvent(t *testing.T) {
	executor, session := newTestDBusExecutor()
	executor.InjectKeyEvent(keyDown(0x070004))
	executor.InjectKeyEvent(keyUp(0x070004))

	want := []recordedCall{
		{method: remoteDesktopSessionInterface + ".NotifyKeyboardKeycode", args: []interface{}{uint32(30), true}},
		{method: remoteDesktopSessionInterface + ".NotifyKeyboardKeycode", args: []interface{}{uint32(30), false}},
	}
	if !reflect.DeepEqual(session.calls, want) {
		t.Errorf("calls = %+v, want %+v", session.calls, want)
	}
}

func TestDBusExecutorDropsUnmappedKey(t *testing.T) {
	executor, session := newTestDBusExecutor()
	executor.InjectKeyEvent(keyDown(0x0c00e9))
	if len(session.calls) != 0 {
		t.Errorf("unmapped key produced calls: %+v", session.calls)
	}
}

func TestDBusExecutorMouseEvent(t *testing.T) {
	executor, session := newTestDBusExecutor()
	event := protocol.MouseEvent{Button: protocol.ButtonRight, ButtonDown: true}.WithPosition(protocol.Point{X: 10, Y: 20})
	executor.InjectMouseEvent(event)

	want := []recordedCall{
		{method: remoteDesktopSessionInterface + ".NotifyPointerMotionAbsolute", args: []interface{}{testStream, float64(10), float64(20)}},
		{method: remoteDesktopSessionInterface + ".NotifyPointerButton", args: []interface{}{evdevButtonRight, true}},
	}
	if !reflect.DeepEqual(session.calls, want) {
		t.Errorf("calls = %+v, want %+v", session.calls, want)
	}
}

func TestDBusExecutorWheelAccumulates(t *testing.T) {
	executor, session := newTestDBusExecutor()

	executor.InjectMouseEvent(protocol.MouseEvent{WheelOffsetY: 60})
	if len(session.calls) != 0 {
		t.Fatalf("half a tick produced calls: %+v", session.calls)
	}
	executor.InjectMouseEvent(protocol.MouseEvent{WheelOffsetY: 60})
	executor.InjectMouseEvent(protocol.MouseEvent{WheelOffsetX: -240})

	want := []recordedCall{
		{method: remoteDesktopSessionInterface + ".NotifyPointerAxisDiscrete", args: []interface{}{axisVertical, int32(-1)}},
		{method: remoteDesktopSessionInterface + ".NotifyPointerAxisDiscrete", args: []interface{}{axisHorizontal, int32(2)}},
	}
	if !reflect.DeepEqual(session.calls, want) {
		t.Errorf("calls = %+v, want %+v", session.calls, want)
	}
}

func TestDBusExecutorCallFailureIsNotFatal(t *testing.T) {
	executor, session := newTestDBusExecutor()
	session.err = errors.New("no such session")
	executor.InjectKeyEvent(keyDown(0x070004))
	executor.InjectMouseEvent(protocol.MouseEvent{Button: protocol.ButtonLeft})
	if len(session.calls) != 2 {
		t.Errorf("got %d calls, want 2", len(session.calls))
	}
}

func TestDialDBusRequiresPaths(t *testing.T) {
	if _, err := DialDBus(DBusConfig{StreamPath: testStream}); err == nil {
		t.Error("DialDBus() without a session path succeeded")
	}
	if _, err := DialDBus(DBusConfig{SessionPath: "not a path", StreamPath: testStream}); err == nil {
		t.Error("DialDBus() with an invalid session path succeeded")
	}
}

func TestWheelSteps(t *testing.T) {
	var remainder int32
	if steps := wheelSteps(&remainder, -300); steps != -2 || remainder != -60 {
		t.Errorf("wheelSteps(-300) = %d rem %d, want -2 rem -60", steps, remainder)
	}
	if steps := wheelSteps(&remainder, -60); steps != -1 || remainder != 0 {
		t.Errorf("wheelSteps(-60) = %d rem %d, want -1 rem 0", steps, remainder)
	}
}

func TestWheelStepsExtremeOffsets(t *testing.T) {
	tests := []struct {
		name          string
		remainder     int32
		offset        int32
		wantSteps     int32
		wantRemainder int32
	}{
		{"max offset on top of remainder", 119, math.MaxInt32, 17895698, 6},
		{"min offset on top of remainder", -119, math.MinInt32, -17895698, -7},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			remainder := test.remainder
			steps := wheelSteps(&remainder, test.offset)
			if steps != test.wantSteps || remainder != test.wantRemainder {
				t.Errorf("wheelSteps(%d) = %d rem %d, want %d rem %d",
					test.offset, steps, remainder, test.wantSteps, test.wantRemainder)
			}
		})
	}
}
