// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// ICEServer is one STUN or TURN server as written in configuration.
type ICEServer struct {
	URLs       []string
	Username   string
	Credential string
}

// ICEConfig holds ICE server configuration for WebRTC PeerConnections.
type ICEConfig struct {
	// Servers is the list of ICE servers (STUN + TURN) to use during
	// candidate gathering.
	Servers []webrtc.ICEServer
}

// NewICEConfig converts configured servers into pion entries. Servers
// without URLs are skipped. With no servers only host candidates are
// gathered, which is enough on a LAN or a single machine.
func NewICEConfig(servers []ICEServer) ICEConfig {
	var config ICEConfig
	for _, server := range servers {
		if len(server.URLs) == 0 {
			continue
		}
		entry := webrtc.ICEServer{URLs: server.URLs}
		if server.Username != "" {
			entry.Username = server.Username
			entry.Credential = server.Credential
		}
		config.Servers = append(config.Servers, entry)
	}
	return config
}

// routeForCandidatePair describes the path a selected candidate pair
// takes. A relay candidate on either end makes the route a relay; a
// server- or peer-reflexive candidate makes it a STUN route; two host
// candidates are a direct route.
func routeForCandidatePair(pair *webrtc.ICECandidatePair) protocol.TransportRoute {
	route := protocol.TransportRoute{
		Type:          routeType(pair.Local.Typ, pair.Remote.Typ),
		LocalAddress:  candidateAddress(pair.Local),
		RemoteAddress: candidateAddress(pair.Remote),
	}
	return route
}

func routeType(local, remote webrtc.ICECandidateType) protocol.RouteType {
	if local == webrtc.ICECandidateTypeRelay || remote == webrtc.ICECandidateTypeRelay {
		return protocol.RouteRelay
	}
	if isReflexive(local) || isReflexive(remote) {
		return protocol.RouteSTUN
	}
	return protocol.RouteDirect
}

func isReflexive(candidateType webrtc.ICECandidateType) bool {
	return candidateType == webrtc.ICECandidateTypeSrflx || candidateType == webrtc.ICECandidateTypePrflx
}

func candidateAddress(candidate *webrtc.ICECandidate) string {
	if candidate == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", candidate.Address, candidate.Port)
}
