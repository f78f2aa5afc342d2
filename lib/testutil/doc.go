// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for remotedesk packages.
//
// [RequireReceive] and [RequireClosed] wrap the timeout safety valve
// (select with a time.After fallback) used wherever a test waits on a
// channel fed by a connection reader, a sequence runner, or a transport
// goroutine. A hung test then fails with a message naming what it was
// waiting for instead of hitting the global test timeout.
//
// [DiscardLogger] returns a structured logger that drops every record,
// for components that require a non-nil *slog.Logger.
package testutil
