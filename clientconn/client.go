// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientconn

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// ErrRejected is returned by Handshake when the host refuses the client's
// key.
var ErrRejected = errors.New("host rejected authentication")

// ClientConfig configures the client side of a connection.
type ClientConfig struct {
	// Name is reported to the host for its logs.
	Name string

	// PrivateKey signs the host's challenge. Required.
	PrivateKey ed25519.PrivateKey

	// HostID, when set, must match the host id in the challenge.
	HostID string

	Encoder protocol.Encoder

	// HandshakeTimeout bounds the handshake. Zero selects
	// DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration
}

// Client is an authenticated client connection. Send methods may be
// called from any goroutine; Receive must be called from one goroutine
// at a time.
type Client struct {
	conn     net.Conn
	encoder  protocol.Encoder
	identity string

	writeMu sync.Mutex
}

// Handshake authenticates to the host over conn. On failure conn is
// closed.
func Handshake(ctx context.Context, conn net.Conn, config ClientConfig) (*Client, error) {
	client, err := handshake(ctx, conn, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

func handshake(ctx context.Context, conn net.Conn, config ClientConfig) (*Client, error) {
	if len(config.PrivateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("clientconn: ClientConfig.PrivateKey is not an Ed25519 key")
	}
	timeout := config.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("setting handshake deadline: %w", err)
	}
	// Cancelling ctx interrupts a blocked read or write.
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	message, err := protocol.ReadMessage(conn)
	if err != nil {
		return nil, handshakeError(ctx, "reading challenge", err)
	}
	if message.Type != protocol.MessageTypeChallenge {
		return nil, fmt.Errorf("expected challenge, got %s", protocol.MessageTypeName(message.Type))
	}
	var challenge protocol.Challenge
	if err := message.Decode(&challenge); err != nil {
		return nil, err
	}
	if len(challenge.Nonce) != protocol.ChallengeNonceSize {
		return nil, fmt.Errorf("challenge nonce is %d bytes, want %d", len(challenge.Nonce), protocol.ChallengeNonceSize)
	}
	if config.HostID != "" && challenge.HostID != config.HostID {
		return nil, fmt.Errorf("connected to host %q, want %q", challenge.HostID, config.HostID)
	}

	hello := protocol.Hello{
		ClientName: config.Name,
		PublicKey:  config.PrivateKey.Public().(ed25519.PublicKey),
		Signature:  ed25519.Sign(config.PrivateKey, challenge.SignedMessage()),
	}
	helloMessage, err := config.Encoder.Encode(protocol.MessageTypeHello, hello)
	if err != nil {
		return nil, err
	}
	if err := protocol.WriteMessage(conn, helloMessage); err != nil {
		return nil, handshakeError(ctx, "sending hello", err)
	}

	message, err = protocol.ReadMessage(conn)
	if err != nil {
		return nil, handshakeError(ctx, "reading auth result", err)
	}
	if message.Type != protocol.MessageTypeAuthResult {
		return nil, fmt.Errorf("expected auth result, got %s", protocol.MessageTypeName(message.Type))
	}
	var result protocol.AuthResult
	if err := message.Decode(&result); err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("%w: %s", ErrRejected, result.Error)
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("clearing handshake deadline: %w", err)
	}
	return &Client{conn: conn, encoder: config.Encoder, identity: result.Identity}, nil
}

func handshakeError(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", step, ctxErr)
	}
	return fmt.Errorf("%s: %w", step, err)
}

// Identity returns the name the host authorized the client as.
func (c *Client) Identity() string {
	return c.identity
}

func (c *Client) SendKeyEvent(event protocol.KeyEvent) error {
	return c.send(protocol.MessageTypeKeyEvent, event)
}

func (c *Client) SendMouseEvent(event protocol.MouseEvent) error {
	return c.send(protocol.MessageTypeMouseEvent, event)
}

func (c *Client) SendClipboardEvent(event protocol.ClipboardEvent) error {
	return c.send(protocol.MessageTypeClipboardEvent, event)
}

func (c *Client) SendClientDimensions(dimensions protocol.ClientDimensions) error {
	return c.send(protocol.MessageTypeClientDimensions, dimensions)
}

func (c *Client) SendVideoControl(control protocol.VideoControl) error {
	return c.send(protocol.MessageTypeVideoControl, control)
}

func (c *Client) SendSequenceNumber(sequenceNumber int64) error {
	return c.send(protocol.MessageTypeSequenceNumber, protocol.SequenceNumber{Value: sequenceNumber})
}

// ReceiveClipboard blocks until the host sends a clipboard event.
func (c *Client) ReceiveClipboard() (protocol.ClipboardEvent, error) {
	message, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return protocol.ClipboardEvent{}, err
	}
	if message.Type != protocol.MessageTypeClipboardEvent {
		return protocol.ClipboardEvent{}, fmt.Errorf("unexpected %s from host", protocol.MessageTypeName(message.Type))
	}
	var event protocol.ClipboardEvent
	if err := message.Decode(&event); err != nil {
		return protocol.ClipboardEvent{}, err
	}
	return event, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) send(messageType byte, value any) error {
	message, err := c.encoder.Encode(messageType, value)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteMessage(c.conn, message)
}
