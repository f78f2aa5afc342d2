// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import "github.com/bureau-foundation/remotedesk/protocol"

var _ protocol.HostEventStub = (*Executor)(nil)

// Executor routes input and clipboard events to separate sinks.
type Executor struct {
	input     protocol.InputStub
	clipboard protocol.ClipboardStub
}

// New joins input and clipboard into one host event sink. Either may
// be nil, in which case events of that kind are dropped.
func New(input protocol.InputStub, clipboard protocol.ClipboardStub) *Executor {
	return &Executor{input: input, clipboard: clipboard}
}

func (e *Executor) InjectKeyEvent(event protocol.KeyEvent) {
	if e.input != nil {
		e.input.InjectKeyEvent(event)
	}
}

func (e *Executor) InjectMouseEvent(event protocol.MouseEvent) {
	if e.input != nil {
		e.input.InjectMouseEvent(event)
	}
}

func (e *Executor) InjectClipboardEvent(event protocol.ClipboardEvent) {
	if e.clipboard != nil {
		e.clipboard.InjectClipboardEvent(event)
	}
}
