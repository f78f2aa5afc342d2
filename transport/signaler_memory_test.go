// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"testing"
)

func TestMemorySignaler_OfferReachesTargetOnce(t *testing.T) {
	ctx := context.Background()
	signaler := NewMemorySignaler()

	if err := signaler.PublishOffer(ctx, "client/laptop", "host/desk", "offer-1"); err != nil {
		t.Fatalf("PublishOffer() error: %v", err)
	}

	other, _ := signaler.PollOffers(ctx, "host/other")
	if len(other) != 0 {
		t.Errorf("offer leaked to another host: %v", other)
	}

	offers, err := signaler.PollOffers(ctx, "host/desk")
	if err != nil {
		t.Fatalf("PollOffers() error: %v", err)
	}
	if len(offers) != 1 || offers[0].PeerID != "client/laptop" || offers[0].SDP != "offer-1" {
		t.Fatalf("offers = %+v, want one offer from client/laptop", offers)
	}

	again, _ := signaler.PollOffers(ctx, "host/desk")
	if len(again) != 0 {
		t.Errorf("offer returned twice: %v", again)
	}
}

func TestMemorySignaler_RepublishedOfferIsNew(t *testing.T) {
	ctx := context.Background()
	signaler := NewMemorySignaler()

	signaler.PublishOffer(ctx, "client/laptop", "host/desk", "offer-1")
	signaler.PollOffers(ctx, "host/desk")
	signaler.PublishOffer(ctx, "client/laptop", "host/desk", "offer-2")

	offers, _ := signaler.PollOffers(ctx, "host/desk")
	if len(offers) != 1 || offers[0].SDP != "offer-2" {
		t.Fatalf("offers = %+v, want the replacement offer", offers)
	}
}

func TestMemorySignaler_AnswerReachesOfferer(t *testing.T) {
	ctx := context.Background()
	signaler := NewMemorySignaler()

	if err := signaler.PublishAnswer(ctx, "client/laptop", "host/desk", "answer-1"); err != nil {
		t.Fatalf("PublishAnswer() error: %v", err)
	}

	wrong, _ := signaler.PollAnswers(ctx, "host/desk")
	if len(wrong) != 0 {
		t.Errorf("answer delivered to the answerer: %v", wrong)
	}

	answers, err := signaler.PollAnswers(ctx, "client/laptop")
	if err != nil {
		t.Fatalf("PollAnswers() error: %v", err)
	}
	if len(answers) != 1 || answers[0].PeerID != "host/desk" || answers[0].SDP != "answer-1" {
		t.Fatalf("answers = %+v, want one answer from host/desk", answers)
	}
}

func TestSplitSignalKey(t *testing.T) {
	tests := []struct {
		key             string
		offerer, target string
		ok              bool
	}{
		{"a|b", "a", "b", true},
		{"client/x|host/y", "client/x", "host/y", true},
		{"nokey", "", "", false},
		{"|b", "", "", false},
		{"a|", "", "", false},
	}
	for _, test := range tests {
		offerer, target, ok := splitSignalKey(test.key)
		if offerer != test.offerer || target != test.target || ok != test.ok {
			t.Errorf("splitSignalKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				test.key, offerer, target, ok, test.offerer, test.target, test.ok)
		}
	}
}
