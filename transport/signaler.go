// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import "context"

// Signaler exchanges WebRTC session descriptions between a client and a
// host.
//
// The signaling model is vanilla ICE: all ICE candidates are gathered
// before the SDP is published, so connection establishment takes
// exactly one signaling round-trip (offer, then answer).
type Signaler interface {
	// PublishOffer publishes a complete SDP offer from peerID directed
	// at targetID. A newer offer for the same pair replaces the older
	// one.
	PublishOffer(ctx context.Context, peerID, targetID, sdp string) error

	// PublishAnswer publishes a complete SDP answer from peerID to an
	// offer previously received from offererID.
	PublishAnswer(ctx context.Context, offererID, peerID, sdp string) error

	// PollOffers returns the offers directed at peerID that this caller
	// has not seen before.
	PollOffers(ctx context.Context, peerID string) ([]SignalMessage, error)

	// PollAnswers returns the answers to offers made by peerID that this
	// caller has not seen before.
	PollAnswers(ctx context.Context, peerID string) ([]SignalMessage, error)
}

// SignalMessage is an offer or an answer.
type SignalMessage struct {
	// PeerID identifies the other party. For offers this is the
	// offerer; for answers it is the answerer.
	PeerID string

	// SDP is the complete session description with all ICE candidates
	// embedded.
	SDP string
}
