// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/bureau-foundation/remotedesk/protocol"
)

const (
	// RemoteDesktopBusName owns the GNOME RemoteDesktop sessions.
	RemoteDesktopBusName = "org.gnome.Mutter.RemoteDesktop"

	remoteDesktopSessionInterface = "org.gnome.Mutter.RemoteDesktop.Session"
)

// evdev pointer button codes (linux/input-event-codes.h).
const (
	evdevButtonLeft   int32 = 0x110
	evdevButtonRight  int32 = 0x111
	evdevButtonMiddle int32 = 0x112
)

// Axis identifiers for NotifyPointerAxisDiscrete.
const (
	axisVertical   uint32 = 0
	axisHorizontal uint32 = 1
)

// wheelTickDelta is the wheel offset of one discrete scroll step.
const wheelTickDelta = 120

// dbusCaller is the part of dbus.BusObject the executor calls.
type dbusCaller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

var _ protocol.InputStub = (*DBusExecutor)(nil)

// DBusConfig locates an already started GNOME RemoteDesktop session.
type DBusConfig struct {
	// SessionPath is the RemoteDesktop session object, e.g.
	// "/org/gnome/Mutter/RemoteDesktop/Session/u1".
	SessionPath string

	// StreamPath is the ScreenCast stream absolute pointer positions
	// are relative to, e.g. "/org/gnome/Mutter/ScreenCast/Stream/u1".
	StreamPath string

	Logger *slog.Logger
}

// DBusExecutor injects input into a GNOME RemoteDesktop session. Calls
// are fire-and-forget: failures are logged, never returned, because
// input sinks have nothing to report them to.
type DBusExecutor struct {
	conn       *dbus.Conn
	session    dbusCaller
	streamPath string
	logger     *slog.Logger

	// Sub-tick wheel offsets carried to the next event.
	wheelRemainderX int32
	wheelRemainderY int32
}

// DialDBus connects to the session bus and binds the configured
// RemoteDesktop session.
func DialDBus(config DBusConfig) (*DBusExecutor, error) {
	if config.SessionPath == "" || config.StreamPath == "" {
		return nil, errors.New("dbus executor requires session and stream paths")
	}
	sessionPath := dbus.ObjectPath(config.SessionPath)
	if !sessionPath.IsValid() {
		return nil, fmt.Errorf("invalid session object path %q", config.SessionPath)
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	executor := newDBusExecutor(conn.Object(RemoteDesktopBusName, sessionPath), config.StreamPath, config.Logger)
	executor.conn = conn
	return executor, nil
}

func newDBusExecutor(session dbusCaller, streamPath string, logger *slog.Logger) *DBusExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DBusExecutor{session: session, streamPath: streamPath, logger: logger}
}

// Close releases the bus connection.
func (e *DBusExecutor) Close() error {
	if e.conn == nil {
		return nil
	}
	return e.conn.Close()
}

func (e *DBusExecutor) InjectKeyEvent(event protocol.KeyEvent) {
	keycode, ok := EvdevKeycode(event.USBKeycode)
	if !ok {
		e.logger.Debug("dropping unmapped key", "usb_keycode", fmt.Sprintf("0x%06x", event.USBKeycode))
		return
	}
	e.call("NotifyKeyboardKeycode", uint32(keycode), event.Pressed)
}

func (e *DBusExecutor) InjectMouseEvent(event protocol.MouseEvent) {
	if position, ok := event.Position(); ok {
		e.call("NotifyPointerMotionAbsolute", e.streamPath, float64(position.X), float64(position.Y))
	}
	if button, ok := evdevButton(event.Button); ok {
		e.call("NotifyPointerButton", button, event.ButtonDown)
	}
	// Positive wheel offsets scroll up or left; positive discrete steps
	// scroll down or right.
	if steps := wheelSteps(&e.wheelRemainderY, event.WheelOffsetY); steps != 0 {
		e.call("NotifyPointerAxisDiscrete", axisVertical, -steps)
	}
	if steps := wheelSteps(&e.wheelRemainderX, event.WheelOffsetX); steps != 0 {
		e.call("NotifyPointerAxisDiscrete", axisHorizontal, -steps)
	}
}

func (e *DBusExecutor) call(method string, args ...interface{}) {
	call := e.session.Call(remoteDesktopSessionInterface+"."+method, 0, args...)
	if call != nil && call.Err != nil {
		e.logger.Warn("remote desktop call failed", "method", method, "error", call.Err)
	}
}

func evdevButton(button protocol.MouseButton) (int32, bool) {
	switch button {
	case protocol.ButtonLeft:
		return evdevButtonLeft, true
	case protocol.ButtonMiddle:
		return evdevButtonMiddle, true
	case protocol.ButtonRight:
		return evdevButtonRight, true
	default:
		return 0, false
	}
}

// wheelSteps adds offset to the remainder and returns the whole steps
// it now holds, leaving the fraction behind. The sum is taken in int64 so
// an extreme offset cannot wrap.
func wheelSteps(remainder *int32, offset int32) int32 {
	total := int64(*remainder) + int64(offset)
	steps := total / wheelTickDelta
	*remainder = int32(total - steps*wheelTickDelta)
	return int32(steps)
}
