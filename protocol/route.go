// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// RouteType describes how a channel reaches the client.
type RouteType uint8

const (
	// RouteDirect is a direct connection between host and client
	// addresses (TCP, or a WebRTC host candidate).
	RouteDirect RouteType = iota

	// RouteSTUN is a connection through a NAT mapping discovered with
	// STUN (server-reflexive or peer-reflexive candidates).
	RouteSTUN

	// RouteRelay is a connection relayed through a TURN server.
	RouteRelay
)

func (routeType RouteType) String() string {
	switch routeType {
	case RouteDirect:
		return "direct"
	case RouteSTUN:
		return "stun"
	case RouteRelay:
		return "relay"
	default:
		return fmt.Sprintf("route(%d)", uint8(routeType))
	}
}

// TransportRoute describes the path a channel takes between the host and
// the client.
type TransportRoute struct {
	Type          RouteType
	RemoteAddress string
	LocalAddress  string
}

func (route TransportRoute) String() string {
	return fmt.Sprintf("%s %s <-> %s", route.Type, route.LocalAddress, route.RemoteAddress)
}
