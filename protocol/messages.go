// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

// ChallengeNonceSize is the size of the random nonce in a Challenge.
const ChallengeNonceSize = 32

// Challenge opens every connection. The client proves possession of an
// authorized key by signing Nonce followed by HostID.
type Challenge struct {
	// Nonce is ChallengeNonceSize random bytes, fresh per connection.
	Nonce []byte `cbor:"nonce"`

	// HostID names the host (e.g., "host/workstation"). Binding it into
	// the signed message stops a response for one host being replayed
	// against another.
	HostID string `cbor:"host_id"`
}

// SignedMessage returns the bytes a client signs to answer the challenge.
func (challenge Challenge) SignedMessage() []byte {
	message := make([]byte, 0, len(challenge.Nonce)+len(challenge.HostID))
	message = append(message, challenge.Nonce...)
	message = append(message, challenge.HostID...)
	return message
}

// Hello answers a Challenge.
type Hello struct {
	// ClientName is the client's self-declared name, used in logs only.
	ClientName string `cbor:"client_name"`

	// PublicKey is the client's raw 32-byte Ed25519 public key.
	PublicKey []byte `cbor:"public_key"`

	// Signature is the 64-byte Ed25519 signature over
	// Challenge.SignedMessage.
	Signature []byte `cbor:"signature"`
}

// AuthResult reports the outcome of the handshake.
type AuthResult struct {
	OK bool `cbor:"ok"`

	// Identity is the name the host authorized the client as. Only set
	// when OK is true.
	Identity string `cbor:"identity,omitempty"`

	// Error describes why authentication failed. Only set when OK is
	// false.
	Error string `cbor:"error,omitempty"`
}

// SequenceNumber acknowledges the latest video frame a client rendered.
type SequenceNumber struct {
	Value int64 `cbor:"value"`
}
