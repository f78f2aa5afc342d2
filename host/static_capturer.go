// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"sync/atomic"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// StaticCapturer reports a fixed capture size that can be changed at any
// time from any goroutine. It stands in for a capture pipeline when the
// host only injects input.
type StaticCapturer struct {
	size atomic.Pointer[protocol.Size]
}

// NewStaticCapturer returns a capturer reporting size.
func NewStaticCapturer(size protocol.Size) *StaticCapturer {
	capturer := &StaticCapturer{}
	capturer.SetSize(size)
	return capturer
}

// SetSize changes the reported size.
func (c *StaticCapturer) SetSize(size protocol.Size) {
	c.size.Store(&size)
}

func (c *StaticCapturer) SizeMostRecent() protocol.Size {
	return *c.size.Load()
}
