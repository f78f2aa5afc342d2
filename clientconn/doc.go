// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clientconn carries a remote-desktop session over a single
// stream connection (TCP, or a WebRTC data channel wrapped as a
// net.Conn).
//
// [Connection] is the host side. It implements
// [protocol.ConnectionToClient]: it runs the challenge-response
// handshake, then decodes client messages and delivers them, together
// with lifecycle callbacks, as tasks on the host's [sequence.Runner].
//
// The handshake:
//
//  1. Host sends Challenge{nonce, host id}.
//  2. Client sends Hello{name, Ed25519 public key, signature over nonce
//     followed by host id}.
//  3. Host verifies the signature, asks its [Authenticator] whether the
//     key is allowed, and answers with AuthResult. A rejected client is
//     disconnected.
//
// [Client] is the client side of the same protocol, used by the
// remotedesk-client command and by tests.
//
// [AuthorizedKeys] authenticates clients against an OpenSSH
// authorized_keys file holding ssh-ed25519 keys.
package clientconn
