// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/bureau-foundation/remotedesk/protocol"
)

func TestNewICEConfig_Empty(t *testing.T) {
	config := NewICEConfig(nil)
	if len(config.Servers) != 0 {
		t.Errorf("expected no ICE servers, got %d", len(config.Servers))
	}
}

func TestNewICEConfig_SkipsServersWithoutURLs(t *testing.T) {
	config := NewICEConfig([]ICEServer{
		{Username: "user", Credential: "pass"},
		{URLs: []string{"stun:stun.example.net:3478"}},
	})
	if len(config.Servers) != 1 {
		t.Fatalf("expected 1 ICE server, got %d", len(config.Servers))
	}
	if config.Servers[0].Username != "" {
		t.Errorf("STUN entry should carry no username, got %q", config.Servers[0].Username)
	}
}

func TestNewICEConfig_TURNCredentials(t *testing.T) {
	config := NewICEConfig([]ICEServer{{
		URLs:       []string{"turn:turn.example.net:3478?transport=udp", "turn:turn.example.net:3478?transport=tcp"},
		Username:   "1234:user",
		Credential: "secret",
	}})
	if len(config.Servers) != 1 {
		t.Fatalf("expected 1 ICE server entry, got %d", len(config.Servers))
	}
	server := config.Servers[0]
	if len(server.URLs) != 2 {
		t.Errorf("expected 2 URLs, got %d", len(server.URLs))
	}
	if server.Username != "1234:user" || server.Credential != "secret" {
		t.Errorf("credentials = %q/%v, want 1234:user/secret", server.Username, server.Credential)
	}
}

func TestRouteType(t *testing.T) {
	tests := []struct {
		local, remote webrtc.ICECandidateType
		want          protocol.RouteType
	}{
		{webrtc.ICECandidateTypeHost, webrtc.ICECandidateTypeHost, protocol.RouteDirect},
		{webrtc.ICECandidateTypeSrflx, webrtc.ICECandidateTypeHost, protocol.RouteSTUN},
		{webrtc.ICECandidateTypeHost, webrtc.ICECandidateTypePrflx, protocol.RouteSTUN},
		{webrtc.ICECandidateTypeRelay, webrtc.ICECandidateTypeHost, protocol.RouteRelay},
		{webrtc.ICECandidateTypeSrflx, webrtc.ICECandidateTypeRelay, protocol.RouteRelay},
	}
	for _, test := range tests {
		if got := routeType(test.local, test.remote); got != test.want {
			t.Errorf("routeType(%s, %s) = %s, want %s", test.local, test.remote, got, test.want)
		}
	}
}

func TestRouteForCandidatePair(t *testing.T) {
	pair := &webrtc.ICECandidatePair{
		Local:  &webrtc.ICECandidate{Typ: webrtc.ICECandidateTypeHost, Address: "10.0.0.2", Port: 50000},
		Remote: &webrtc.ICECandidate{Typ: webrtc.ICECandidateTypeSrflx, Address: "203.0.113.9", Port: 61000},
	}
	route := routeForCandidatePair(pair)
	if route.Type != protocol.RouteSTUN {
		t.Errorf("Type = %s, want stun", route.Type)
	}
	if route.LocalAddress != "10.0.0.2:50000" || route.RemoteAddress != "203.0.113.9:61000" {
		t.Errorf("addresses = %s <-> %s", route.LocalAddress, route.RemoteAddress)
	}
}
