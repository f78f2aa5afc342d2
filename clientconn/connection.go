// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientconn

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/remotedesk/lib/netutil"
	"github.com/bureau-foundation/remotedesk/lib/sequence"
	"github.com/bureau-foundation/remotedesk/protocol"
)

// Compile-time interface check.
var _ protocol.ConnectionToClient = (*Connection)(nil)

// EventChannelName names the single channel a Connection carries, as
// reported in route changes.
const EventChannelName = "event"

// DefaultHandshakeTimeout bounds the handshake when Config leaves
// HandshakeTimeout zero.
const DefaultHandshakeTimeout = 10 * time.Second

// DefaultWriteTimeout bounds each write to an authenticated client when
// Config leaves WriteTimeout zero.
const DefaultWriteTimeout = 10 * time.Second

// outboundQueueSize is how many host messages may wait for the writer.
// A client that falls further behind is disconnected.
const outboundQueueSize = 64

// Config configures a host-side Connection.
type Config struct {
	// HostID is bound into the challenge the client signs.
	HostID string

	// Authenticator decides which client keys are accepted. Required.
	Authenticator Authenticator

	// Encoder builds outbound messages; its zero value sends payloads
	// uncompressed.
	Encoder protocol.Encoder

	// HandshakeTimeout bounds the whole handshake.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each message written after the handshake. A
	// client that stops reading is disconnected once it expires.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// Connection is the host side of one client connection. Its
// ConnectionToClient methods must be called on the runner; lifecycle
// callbacks and client messages are delivered there too. A reader
// goroutine owns the socket's read side. After the handshake a writer
// goroutine owns the write side: the client stub only queues, so a
// slow client never blocks the runner.
type Connection struct {
	conn   net.Conn
	route  protocol.TransportRoute
	runner *sequence.Runner
	config Config
	logger *slog.Logger

	// Runner-confined.
	handler       protocol.ConnectionEventHandler
	inputStub     protocol.InputStub
	clipboardStub protocol.ClipboardStub
	hostStub      protocol.HostStub
	closed        bool

	outbound chan protocol.Message

	socketCloseOnce sync.Once
	done            chan struct{}

	clientStub clientStub
}

// New wraps conn, which reached the host over route. Call
// SetEventHandler and the stub setters, then Start.
func New(conn net.Conn, route protocol.TransportRoute, runner *sequence.Runner, config Config) *Connection {
	if config.Authenticator == nil {
		panic("clientconn: Config.Authenticator is required")
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		conn:   conn,
		route:  route,
		runner: runner,
		config: config,
		logger:   logger.With("client", conn.RemoteAddr().String()),
		outbound: make(chan protocol.Message, outboundQueueSize),
		done:     make(chan struct{}),
	}
	c.clientStub.connection = c
	return c
}

func (c *Connection) SetEventHandler(handler protocol.ConnectionEventHandler) {
	c.runner.Check()
	c.handler = handler
}

func (c *Connection) SetInputStub(stub protocol.InputStub) {
	c.runner.Check()
	c.inputStub = stub
}

func (c *Connection) SetClipboardStub(stub protocol.ClipboardStub) {
	c.runner.Check()
	c.clipboardStub = stub
}

func (c *Connection) SetHostStub(stub protocol.HostStub) {
	c.runner.Check()
	c.hostStub = stub
}

// ClientStub returns the sink for messages to the client. Writes that
// fail close the connection.
func (c *Connection) ClientStub() protocol.ClientStub {
	return &c.clientStub
}

// ClientID returns the client's remote address.
func (c *Connection) ClientID() string {
	return c.conn.RemoteAddr().String()
}

// Route returns the transport route the connection arrived on.
func (c *Connection) Route() protocol.TransportRoute {
	return c.route
}

// Disconnect closes the socket and reports OnConnectionClosed(OK) before
// returning. Later calls, and messages still queued from the reader, are
// ignored.
func (c *Connection) Disconnect() {
	c.runner.Check()
	c.closeWithCode(protocol.OK)
}

// Start runs the handshake and then the read loop on a new goroutine.
// Cancelling ctx closes the connection.
func (c *Connection) Start(ctx context.Context) {
	go c.serve(ctx)
}

// Done is closed once the socket has been closed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) serve(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			c.closeSocket()
		case <-c.done:
		}
	}()

	identity, code, err := c.handshake()
	if err != nil {
		if !netutil.IsExpectedCloseError(err) {
			c.logger.Warn("handshake failed", "code", code, "error", err)
		}
		c.post(func() { c.closeWithCode(code) })
		return
	}
	c.logger.Info("client authenticated", "identity", identity, "route", c.route.String())

	c.post(func() {
		if c.closed {
			return
		}
		c.handler.OnConnectionAuthenticated(c)
	})
	c.post(func() {
		if c.closed {
			return
		}
		c.handler.OnConnectionChannelsConnected(c)
	})
	c.post(func() {
		if c.closed {
			return
		}
		c.handler.OnRouteChange(c, EventChannelName, c.route)
	})

	go c.writeLoop()
	c.readLoop()
}

// handshake authenticates the client. On failure it returns the error
// code to close with.
func (c *Connection) handshake() (string, protocol.ErrorCode, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.config.HandshakeTimeout)); err != nil {
		return "", protocol.ChannelConnectionError, fmt.Errorf("setting handshake deadline: %w", err)
	}

	nonce := make([]byte, protocol.ChallengeNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", protocol.UnknownError, fmt.Errorf("generating nonce: %w", err)
	}
	challenge := protocol.Challenge{Nonce: nonce, HostID: c.config.HostID}
	if err := c.send(protocol.MessageTypeChallenge, challenge); err != nil {
		return "", handshakeErrorCode(err), err
	}

	message, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return "", handshakeErrorCode(err), err
	}
	if message.Type != protocol.MessageTypeHello {
		return "", protocol.IncompatibleProtocol,
			fmt.Errorf("expected hello, got %s", protocol.MessageTypeName(message.Type))
	}
	var hello protocol.Hello
	if err := message.Decode(&hello); err != nil {
		return "", protocol.IncompatibleProtocol, err
	}

	identity, authErr := c.verifyHello(challenge, hello)
	result := protocol.AuthResult{OK: authErr == nil, Identity: identity}
	if authErr != nil {
		result.Error = authErr.Error()
	}
	if err := c.send(protocol.MessageTypeAuthResult, result); err != nil {
		return "", handshakeErrorCode(err), err
	}
	if authErr != nil {
		return "", protocol.AuthenticationFailed,
			fmt.Errorf("client %q: %w", hello.ClientName, authErr)
	}

	if err := c.conn.SetDeadline(time.Time{}); err != nil {
		return "", protocol.ChannelConnectionError, fmt.Errorf("clearing handshake deadline: %w", err)
	}
	return identity, protocol.OK, nil
}

func (c *Connection) verifyHello(challenge protocol.Challenge, hello protocol.Hello) (string, error) {
	if len(hello.PublicKey) != ed25519.PublicKeySize {
		return "", fmt.Errorf("public key is %d bytes, want %d", len(hello.PublicKey), ed25519.PublicKeySize)
	}
	publicKey := ed25519.PublicKey(hello.PublicKey)
	if !ed25519.Verify(publicKey, challenge.SignedMessage(), hello.Signature) {
		return "", errors.New("challenge signature does not verify")
	}
	return c.config.Authenticator.Authenticate(publicKey)
}

// handshakeErrorCode classifies a transport error during the handshake.
func handshakeErrorCode(err error) protocol.ErrorCode {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return protocol.SignalingTimeout
	}
	if errors.Is(err, protocol.ErrPayloadTooLarge) {
		return protocol.IncompatibleProtocol
	}
	return protocol.ChannelConnectionError
}

// readLoop decodes client messages until the socket fails, posting each
// to the runner.
func (c *Connection) readLoop() {
	for {
		message, err := protocol.ReadMessage(c.conn)
		if err != nil {
			code := protocol.ChannelConnectionError
			switch {
			case netutil.IsExpectedCloseError(err):
				code = protocol.OK
			case errors.Is(err, protocol.ErrPayloadTooLarge):
				code = protocol.IncompatibleProtocol
			default:
				c.logger.Warn("reading client message failed", "error", err)
			}
			c.post(func() { c.closeWithCode(code) })
			return
		}
		dispatch, err := c.decode(message)
		if err != nil {
			c.logger.Warn("undecodable client message",
				"type", protocol.MessageTypeName(message.Type),
				"error", err,
			)
			c.post(func() { c.closeWithCode(protocol.IncompatibleProtocol) })
			return
		}
		c.post(func() {
			if !c.closed {
				dispatch()
			}
		})
	}
}

// decode turns a client message into the runner task that delivers it.
func (c *Connection) decode(message protocol.Message) (func(), error) {
	switch message.Type {
	case protocol.MessageTypeKeyEvent:
		var event protocol.KeyEvent
		if err := message.Decode(&event); err != nil {
			return nil, err
		}
		return func() {
			if c.inputStub != nil {
				c.inputStub.InjectKeyEvent(event)
			}
		}, nil

	case protocol.MessageTypeMouseEvent:
		var event protocol.MouseEvent
		if err := message.Decode(&event); err != nil {
			return nil, err
		}
		return func() {
			if c.inputStub != nil {
				c.inputStub.InjectMouseEvent(event)
			}
		}, nil

	case protocol.MessageTypeClipboardEvent:
		var event protocol.ClipboardEvent
		if err := message.Decode(&event); err != nil {
			return nil, err
		}
		return func() {
			if c.clipboardStub != nil {
				c.clipboardStub.InjectClipboardEvent(event)
			}
		}, nil

	case protocol.MessageTypeClientDimensions:
		var dimensions protocol.ClientDimensions
		if err := message.Decode(&dimensions); err != nil {
			return nil, err
		}
		return func() {
			if c.hostStub != nil {
				c.hostStub.NotifyClientDimensions(dimensions)
			}
		}, nil

	case protocol.MessageTypeVideoControl:
		var control protocol.VideoControl
		if err := message.Decode(&control); err != nil {
			return nil, err
		}
		return func() {
			if c.hostStub != nil {
				c.hostStub.ControlVideo(control)
			}
		}, nil

	case protocol.MessageTypeSequenceNumber:
		var sequenceNumber protocol.SequenceNumber
		if err := message.Decode(&sequenceNumber); err != nil {
			return nil, err
		}
		return func() {
			c.handler.OnSequenceNumberUpdated(c, sequenceNumber.Value)
		}, nil

	default:
		return nil, fmt.Errorf("unexpected message type %s", protocol.MessageTypeName(message.Type))
	}
}

// post queues task on the runner. If the runner has stopped, nobody is
// left to deliver to and the socket is closed directly.
func (c *Connection) post(task func()) {
	if !c.runner.Post(task) {
		c.closeSocket()
	}
}

// closeWithCode runs on the runner. It closes the socket and reports the
// first close to the handler.
func (c *Connection) closeWithCode(code protocol.ErrorCode) {
	if c.closed {
		return
	}
	c.closed = true
	c.closeSocket()
	if c.handler != nil {
		c.handler.OnConnectionClosed(c, code)
	}
}

func (c *Connection) closeSocket() {
	c.socketCloseOnce.Do(func() {
		c.conn.Close()
		close(c.done)
	})
}

// send encodes value and writes it as one message. Only the handshake
// writes directly; afterwards messages go through enqueue.
func (c *Connection) send(messageType byte, value any) error {
	message, err := c.config.Encoder.Encode(messageType, value)
	if err != nil {
		return err
	}
	return protocol.WriteMessage(c.conn, message)
}

// enqueue runs on the runner. It hands a message to the writer and
// closes the connection with ChannelConnectionError when the queue is
// full.
func (c *Connection) enqueue(messageType byte, value any) {
	if c.closed {
		return
	}
	message, err := c.config.Encoder.Encode(messageType, value)
	if err != nil {
		c.logger.Error("encoding message for client failed",
			"type", protocol.MessageTypeName(messageType),
			"error", err,
		)
		return
	}
	select {
	case c.outbound <- message:
	default:
		c.logger.Warn("client is not reading, disconnecting",
			"queued", len(c.outbound),
			"type", protocol.MessageTypeName(messageType),
		)
		c.closeWithCode(protocol.ChannelConnectionError)
	}
}

// writeLoop writes queued messages until the socket closes. Each write
// is bounded by WriteTimeout.
func (c *Connection) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case message := <-c.outbound:
			if err := c.write(message); err != nil {
				code := protocol.ChannelConnectionError
				if netutil.IsExpectedCloseError(err) {
					code = protocol.OK
				} else {
					c.logger.Warn("writing to client failed",
						"type", protocol.MessageTypeName(message.Type),
						"error", err,
					)
				}
				c.post(func() { c.closeWithCode(code) })
				return
			}
		}
	}
}

func (c *Connection) write(message protocol.Message) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	return protocol.WriteMessage(c.conn, message)
}

// clientStub sends host messages to the client. It is used on the
// runner and never blocks it.
type clientStub struct {
	connection *Connection
}

func (s *clientStub) InjectClipboardEvent(event protocol.ClipboardEvent) {
	s.connection.enqueue(protocol.MessageTypeClipboardEvent, event)
}
