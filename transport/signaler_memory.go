// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"strings"
	"sync"
)

var _ Signaler = (*MemorySignaler)(nil)

// signalingSeparator joins the offerer and target IDs into a signal key.
const signalingSeparator = "|"

// MemorySignaler is an in-process Signaler. Two WebRTCTransports sharing
// one MemorySignaler can establish PeerConnections without any network
// signaling, which is how the host and client meet in tests and in
// single-process setups.
type MemorySignaler struct {
	mu       sync.Mutex
	revision uint64
	offers   map[string]storedSignal // key: "offerer|target"
	answers  map[string]storedSignal // key: "offerer|target"

	// lastSeen maps a consumer-qualified key to the revision it last
	// returned.
	lastSeen map[string]uint64
}

type storedSignal struct {
	message  SignalMessage
	revision uint64
}

// NewMemorySignaler creates an empty in-process signaler.
func NewMemorySignaler() *MemorySignaler {
	return &MemorySignaler{
		offers:   make(map[string]storedSignal),
		answers:  make(map[string]storedSignal),
		lastSeen: make(map[string]uint64),
	}
}

func (s *MemorySignaler) PublishOffer(_ context.Context, peerID, targetID, sdp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	s.offers[signalKey(peerID, targetID)] = storedSignal{
		message:  SignalMessage{PeerID: peerID, SDP: sdp},
		revision: s.revision,
	}
	return nil
}

func (s *MemorySignaler) PublishAnswer(_ context.Context, offererID, peerID, sdp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	s.answers[signalKey(offererID, peerID)] = storedSignal{
		message:  SignalMessage{PeerID: peerID, SDP: sdp},
		revision: s.revision,
	}
	return nil
}

func (s *MemorySignaler) PollOffers(_ context.Context, peerID string) ([]SignalMessage, error) {
	return s.poll("offers", peerID, s.offers, func(offerer, target string) bool {
		return target == peerID
	}), nil
}

func (s *MemorySignaler) PollAnswers(_ context.Context, peerID string) ([]SignalMessage, error) {
	return s.poll("answers", peerID, s.answers, func(offerer, target string) bool {
		return offerer == peerID
	}), nil
}

// poll returns the stored signals whose key matches and whose revision
// is newer than the one this consumer last saw.
func (s *MemorySignaler) poll(storeLabel, consumer string, store map[string]storedSignal, match func(offerer, target string) bool) []SignalMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []SignalMessage
	for key, signal := range store {
		offerer, target, ok := splitSignalKey(key)
		if !ok || !match(offerer, target) {
			continue
		}
		seenKey := storeLabel + ":" + consumer + ":" + key
		if signal.revision <= s.lastSeen[seenKey] {
			continue
		}
		s.lastSeen[seenKey] = signal.revision
		messages = append(messages, signal.message)
	}
	return messages
}

func signalKey(offererID, targetID string) string {
	return offererID + signalingSeparator + targetID
}

func splitSignalKey(key string) (offererID, targetID string, ok bool) {
	offererID, targetID, ok = strings.Cut(key, signalingSeparator)
	if !ok || offererID == "" || targetID == "" {
		return "", "", false
	}
	return offererID, targetID, true
}
