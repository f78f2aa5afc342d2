// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the vocabulary shared by the host-side session
// controller, its connection, and its host collaborators.
//
// The package is organized around the event flow:
//
//   - events.go: the immutable event payloads (key, mouse, clipboard,
//     client dimensions, video control) and geometry types
//   - stubs.go: the sink interfaces events are injected into, and the
//     connection collaborator's interfaces
//   - route.go, errors.go: transport route descriptions and connection
//     error codes reported by the connection
//   - wire.go, messages.go, compress.go: the framed binary wire format
//     used between a client and the host
//
// Every sink interface has a single capability per event kind. A filter
// stage implements the sink interface and forwards to another sink, so a
// pipeline is built by pointing each stage at the next one.
package protocol
