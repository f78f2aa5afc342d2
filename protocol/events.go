// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// KeyEvent reports a key transition. Keys are identified by USB HID usage
// (page in the high 16 bits, usage in the low 16), e.g. 0x070004 for "A".
type KeyEvent struct {
	USBKeycode uint32 `cbor:"usb_keycode"`
	Pressed    bool   `cbor:"pressed"`
}

// MouseButton identifies a pointer button. ButtonUndefined means the event
// carries no button transition.
type MouseButton uint8

const (
	ButtonUndefined MouseButton = 0
	ButtonLeft      MouseButton = 1
	ButtonMiddle    MouseButton = 2
	ButtonRight     MouseButton = 3

	// ButtonMax is one past the highest defined button.
	ButtonMax MouseButton = 4
)

// String returns the lowercase button name.
func (button MouseButton) String() string {
	switch button {
	case ButtonUndefined:
		return "undefined"
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return fmt.Sprintf("button(%d)", uint8(button))
	}
}

// MouseEvent reports pointer movement, a button transition, wheel motion,
// or any combination. X and Y are meaningful only when HasPosition is set.
type MouseEvent struct {
	X           int32 `cbor:"x,omitempty"`
	Y           int32 `cbor:"y,omitempty"`
	HasPosition bool  `cbor:"has_position,omitempty"`

	Button     MouseButton `cbor:"button,omitempty"`
	ButtonDown bool        `cbor:"button_down,omitempty"`

	WheelOffsetX int32 `cbor:"wheel_offset_x,omitempty"`
	WheelOffsetY int32 `cbor:"wheel_offset_y,omitempty"`
}

// Position returns the event's pointer position and whether it has one.
func (event MouseEvent) Position() (Point, bool) {
	return Point{X: event.X, Y: event.Y}, event.HasPosition
}

// WithPosition returns a copy of event positioned at point.
func (event MouseEvent) WithPosition(point Point) MouseEvent {
	event.X = point.X
	event.Y = point.Y
	event.HasPosition = true
	return event
}

// ClipboardEvent carries a clipboard value in either direction.
type ClipboardEvent struct {
	MimeType string `cbor:"mime_type"`
	Data     []byte `cbor:"data"`
}

// MimeTypeTextUTF8 is the only clipboard format clients are required to
// support.
const MimeTypeTextUTF8 = "text/plain; charset=UTF-8"

// ClientDimensions reports the size of the client's viewing area.
type ClientDimensions struct {
	Width  int32 `cbor:"width"`
	Height int32 `cbor:"height"`
}

// VideoControl asks the host to pause or resume the video stream.
type VideoControl struct {
	Enable bool `cbor:"enable"`
}

// Point is a position in pixels.
type Point struct {
	X int32
	Y int32
}

// Size is a width and height in pixels.
type Size struct {
	Width  int32
	Height int32
}

// IsEmpty reports whether the size has no area.
func (size Size) IsEmpty() bool {
	return size.Width <= 0 || size.Height <= 0
}

func (size Size) String() string {
	return fmt.Sprintf("%dx%d", size.Width, size.Height)
}
