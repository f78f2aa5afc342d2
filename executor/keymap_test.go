// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import "testing"

func TestEvdevKeycode(t *testing.T) {
	tests := []struct {
		name       string
		usbKeycode uint32
		want       uint16
		ok         bool
	}{
		{"a", 0x070004, 30, true},
		{"z", 0x07001d, 44, true},
		{"1", 0x07001e, 2, true},
		{"0", 0x070027, 11, true},
		{"enter", 0x070028, 28, true},
		{"escape", 0x070029, 1, true},
		{"space", 0x07002c, 57, true},
		{"f1", 0x07003a, 59, true},
		{"f12", 0x070045, 88, true},
		{"delete", usbDelete, 111, true},
		{"up", 0x070052, 103, true},
		{"left control", usbLeftControl, 29, true},
		{"left alt", usbLeftAlt, 56, true},
		{"right control", usbRightControl, 97, true},
		{"right alt", usbRightAlt, 100, true},
		{"right meta", 0x0700e7, 126, true},
		{"reserved usage", 0x070000, 0, false},
		{"past table", 0x070080, 0, false},
		{"consumer page", 0x0c00e9, 0, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := EvdevKeycode(test.usbKeycode)
			if got != test.want || ok != test.ok {
				t.Errorf("EvdevKeycode(0x%06x) = %d, %v; want %d, %v",
					test.usbKeycode, got, ok, test.want, test.ok)
			}
		})
	}
}
