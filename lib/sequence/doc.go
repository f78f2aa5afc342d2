// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sequence provides the confinement primitive for host-side session
// state: a [Runner] executes posted tasks one at a time on a single
// goroutine, in the order they were posted.
//
// State owned by a Runner (client sessions, their filter chains, the host's
// session list) is never locked. Instead, every entry point calls
// [Runner.Check], which panics when the caller is not executing inside one
// of the Runner's tasks. Calling off-sequence is a programming error, never
// a recoverable runtime condition.
//
// Goroutines that observe external events (socket readers, signaling
// pollers) hand work to the Runner with [Runner.Post]. Code outside the
// Runner that needs a result waits with [Runner.Invoke].
package sequence
