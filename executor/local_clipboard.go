// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"bytes"
	"sync"

	"github.com/bureau-foundation/remotedesk/protocol"
)

var _ protocol.ClipboardStub = (*LocalClipboard)(nil)

// LocalClipboard is an in-memory host clipboard. Clients write to it
// through InjectClipboardEvent; the host side changes it with Set,
// which reports the change to the onChange callback so it can be sent
// to the connected client. Safe for concurrent use.
type LocalClipboard struct {
	mu       sync.Mutex
	current  protocol.ClipboardEvent
	has      bool
	onChange func(protocol.ClipboardEvent)
}

// NewLocalClipboard creates an empty clipboard. onChange may be nil.
func NewLocalClipboard(onChange func(protocol.ClipboardEvent)) *LocalClipboard {
	return &LocalClipboard{onChange: onChange}
}

// InjectClipboardEvent stores a value pasted by a client. It is not
// reported to onChange: the client already has it.
func (c *LocalClipboard) InjectClipboardEvent(event protocol.ClipboardEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = cloneClipboardEvent(event)
	c.has = true
}

// Set records a change made on the host and reports it to onChange.
// Setting the value the clipboard already holds reports nothing.
func (c *LocalClipboard) Set(event protocol.ClipboardEvent) {
	c.mu.Lock()
	if c.has && c.current.MimeType == event.MimeType && bytes.Equal(c.current.Data, event.Data) {
		c.mu.Unlock()
		return
	}
	c.current = cloneClipboardEvent(event)
	c.has = true
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(cloneClipboardEvent(event))
	}
}

// Current returns the clipboard value and whether there is one.
func (c *LocalClipboard) Current() (protocol.ClipboardEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneClipboardEvent(c.current), c.has
}

func cloneClipboardEvent(event protocol.ClipboardEvent) protocol.ClipboardEvent {
	event.Data = bytes.Clone(event.Data)
	return event
}
