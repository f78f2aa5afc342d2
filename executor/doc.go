// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package executor holds the host-side sinks that remote input and
// clipboard events finally land in.
//
// [Executor] joins an input sink and a clipboard sink into the
// protocol.HostEventStub a host session writes to. [DBusExecutor]
// injects input into a GNOME RemoteDesktop session over the D-Bus
// session bus; [LogExecutor] only logs, for headless hosts and
// debugging. [SecureAttention] wraps an input sink and reports
// Ctrl+Alt+Del so the host can handle it locally. [LocalClipboard]
// stands in for the host's clipboard: it stores what clients paste and
// reports local changes so they can be sent to the connected client.
// [FileClipboard] mirrors it to a text file so desktop clipboard tools
// can feed it.
package executor
