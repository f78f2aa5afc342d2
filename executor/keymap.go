// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

// usbKeyboardPage is the USB HID usage page for keyboard keys.
const usbKeyboardPage = 0x07

// evdevKeycodes maps keyboard-page usages 0x00-0x67 to Linux evdev
// keycodes (linux/input-event-codes.h). Zero means unmapped.
var evdevKeycodes = [...]uint16{
	0, 0, 0, 0, 30, 48, 46, 32, 18, 33, 34, 35, 23, 36, 37, 38, // 0x00
	50, 49, 24, 25, 16, 19, 31, 20, 22, 47, 17, 45, 21, 44, 2, 3, // 0x10
	4, 5, 6, 7, 8, 9, 10, 11, 28, 1, 14, 15, 57, 12, 13, 26, // 0x20
	27, 43, 43, 39, 40, 41, 51, 52, 53, 58, 59, 60, 61, 62, 63, 64, // 0x30
	65, 66, 67, 68, 87, 88, 99, 70, 119, 110, 102, 104, 111, 107, 109, 106, // 0x40
	105, 108, 103, 69, 98, 55, 74, 78, 96, 79, 80, 81, 75, 76, 77, 71, // 0x50
	72, 73, 82, 83, 86, 127, 116, 117, // 0x60
}

// evdevModifiers maps the modifier usages 0xe0-0xe7: left control,
// shift, alt, meta, then the right-hand four.
var evdevModifiers = [...]uint16{29, 42, 56, 125, 97, 54, 100, 126}

// EvdevKeycode translates a USB HID keycode (page in the high 16 bits)
// to an evdev keycode. Returns false for keys with no mapping.
func EvdevKeycode(usbKeycode uint32) (uint16, bool) {
	if usbKeycode>>16 != usbKeyboardPage {
		return 0, false
	}
	usage := usbKeycode & 0xffff
	var keycode uint16
	switch {
	case usage < uint32(len(evdevKeycodes)):
		keycode = evdevKeycodes[usage]
	case usage >= 0xe0 && usage <= 0xe7:
		keycode = evdevModifiers[usage-0xe0]
	}
	return keycode, keycode != 0
}
