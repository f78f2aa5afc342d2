// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"log/slog"

	"github.com/bureau-foundation/remotedesk/protocol"
)

var _ protocol.HostEventStub = (*LogExecutor)(nil)

// LogExecutor logs every event at debug level and injects nothing.
// Clipboard contents are never logged, only their type and size.
type LogExecutor struct {
	logger *slog.Logger
}

func NewLogExecutor(logger *slog.Logger) *LogExecutor {
	return &LogExecutor{logger: logger}
}

func (e *LogExecutor) InjectKeyEvent(event protocol.KeyEvent) {
	e.logger.Debug("key event",
		"usb_keycode", event.USBKeycode,
		"pressed", event.Pressed,
	)
}

func (e *LogExecutor) InjectMouseEvent(event protocol.MouseEvent) {
	attributes := []any{}
	if position, ok := event.Position(); ok {
		attributes = append(attributes, "x", position.X, "y", position.Y)
	}
	if event.Button != protocol.ButtonUndefined {
		attributes = append(attributes, "button", event.Button.String(), "down", event.ButtonDown)
	}
	if event.WheelOffsetX != 0 || event.WheelOffsetY != 0 {
		attributes = append(attributes, "wheel_x", event.WheelOffsetX, "wheel_y", event.WheelOffsetY)
	}
	e.logger.Debug("mouse event", attributes...)
}

func (e *LogExecutor) InjectClipboardEvent(event protocol.ClipboardEvent) {
	e.logger.Debug("clipboard event",
		"mime_type", event.MimeType,
		"bytes", len(event.Data),
	)
}
