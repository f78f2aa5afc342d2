// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// remotedesk-host accepts remote desktop clients and injects their input
// into the local session.
//
// Configuration comes from the file named by --config or the
// REMOTEDESK_CONFIG environment variable (see lib/config). Clients
// connect over TCP or WebRTC and authenticate with an ssh-ed25519 key
// listed in host.authorized_keys. One client controls the host at a
// time: a newly authenticated client disconnects the others.
//
// Input goes to the executor named by executor.kind: "log" only logs
// it, "dbus" injects it into a GNOME RemoteDesktop session.
//
// The host clipboard is held in memory. Setting host.clipboard_file
// mirrors it to a text file: client pastes are written there, and
// edits to the file (for example from "wl-paste --watch") are sent to
// the connected client. Without it, host-side clipboard changes have no
// source and only client-to-host pastes flow.
//
// Signals:
//
//   - SIGINT, SIGTERM: disconnect every client and exit.
//   - SIGUSR1: local takeover; client input is dropped and anything a
//     client holds pressed is released.
//   - SIGUSR2: end the takeover.
package main
