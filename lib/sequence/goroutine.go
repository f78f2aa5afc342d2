// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sequence

import "runtime"

// goroutineID returns the runtime's identifier for the calling
// goroutine, parsed from the "goroutine <id> [" header of its stack.
func goroutineID() uint64 {
	var buffer [64]byte
	length := runtime.Stack(buffer[:], false)

	const prefix = len("goroutine ")
	var id uint64
	for index := prefix; index < length; index++ {
		digit := buffer[index]
		if digit < '0' || digit > '9' {
			break
		}
		id = id*10 + uint64(digit-'0')
	}
	return id
}
