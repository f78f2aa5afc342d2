// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by every
// remotedesk wire message.
//
// Frame payloads on the client connection (key, mouse and clipboard
// events, the authentication handshake, sequence acknowledgements) are
// CBOR. Configuration files and event scripts are YAML. This package owns
// the CBOR side so that host and client encode identically.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items. The same
// event always produces the same bytes, which keeps compressed frames and
// test fixtures stable.
//
//	data, err := codec.Marshal(event)
//	err = codec.Unmarshal(data, &event)
//
// Wire types carry `cbor` struct tags. Unknown fields are ignored on
// decode so that a newer client can talk to an older host.
package codec
