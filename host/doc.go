// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package host implements the host side of a remote-desktop session.
//
// A [ClientSession] controls one client connection. It owns the filter
// pipeline between the connection and the host's input and clipboard
// surface and moves through a fixed lifecycle:
//
//	Connecting -> Authenticated -> ChannelsConnected -> Closed
//
// Closed is reachable from every state and is final. Input reaches the
// host only while the session is authenticated and input is not
// disabled, and every key or button the client left pressed is released
// before the session reports itself closed.
//
// A [Host] owns the sessions. It admits a single authenticated client at
// a time, broadcasts local pointer movement and local-takeover state to
// every session, and reports client lifecycle events to
// [StatusObserver]s.
//
// Neither type locks. Every method must run on the [sequence.Runner] the
// type was built with; calls from anywhere else panic.
package host
