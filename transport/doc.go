// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport carries client connections to the host.
//
// A [Listener] accepts inbound connections and hands each one, with the
// [protocol.TransportRoute] it arrived on, to a [ConnectionHandler]. A
// [Dialer] opens a connection from a client. Everything above this
// package sees a plain net.Conn.
//
// [TCPListener] and [TCPDialer] are the simplest pair; their routes are
// always direct.
//
// [WebRTCTransport] implements both interfaces over pion/webrtc data
// channels. Each client connection is its own PeerConnection carrying
// one ordered, reliable data channel labelled [EventChannelLabel]. The
// route type comes from the selected ICE candidate pair: a relay
// candidate on either side means a TURN relay, a reflexive candidate
// means a STUN-mapped path, and two host candidates mean a direct path.
//
// Signaling sits behind the [Signaler] interface. Connection setup uses
// vanilla ICE: candidates are gathered before the SDP is published, so
// each connection costs one offer and one answer. [MemorySignaler]
// exchanges them in process. [ICEConfig] holds STUN and TURN servers.
//
// [DataChannelConn] adapts a detached data channel to net.Conn with
// deadline support.
package transport
