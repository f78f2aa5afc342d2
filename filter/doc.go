// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter provides the stages of the host's input pipeline.
//
// Every stage implements [protocol.InputStub] or [protocol.ClipboardStub]
// and holds a reference to the next stage. A nil next stage drops the
// event. Owners rewire the pipeline by replacing a stage's next stage;
// no stage synchronizes access, so a pipeline must be confined to one
// goroutine (in the host, a [sequence.Runner]).
//
// Stages:
//
//   - [InputFilter] and [ClipboardFilter]: gates. Open when their next
//     stage is set, closed when it is nil.
//   - [MouseInputFilter]: scales pointer coordinates from the client's
//     coordinate space to the capture size and clamps them.
//   - [RemoteInputFilter]: remembers the pointer positions it injected so
//     local pointer movement can be told apart from echoes of them.
//   - [InputEventTracker]: records pressed keys and buttons and can
//     release all of them.
//   - [ClipboardEchoFilter]: keeps a clipboard value received from the
//     client from being sent straight back to it.
package filter
