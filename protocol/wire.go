// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/remotedesk/lib/codec"
)

// Message type constants for the client connection wire format. Each
// message is a 6-byte header (1 byte type, 1 byte compression tag, 4 byte
// big-endian payload length) followed by a CBOR payload.
const (
	// MessageTypeChallenge carries a Challenge. Host→client, first
	// message on every connection.
	MessageTypeChallenge byte = 0x01

	// MessageTypeHello carries a Hello answering the challenge.
	// Client→host, exactly once.
	MessageTypeHello byte = 0x02

	// MessageTypeAuthResult carries an AuthResult. Host→client. The
	// host closes the connection after a failed result.
	MessageTypeAuthResult byte = 0x03

	// MessageTypeKeyEvent carries a KeyEvent. Client→host.
	MessageTypeKeyEvent byte = 0x10

	// MessageTypeMouseEvent carries a MouseEvent. Client→host.
	MessageTypeMouseEvent byte = 0x11

	// MessageTypeClipboardEvent carries a ClipboardEvent in either
	// direction.
	MessageTypeClipboardEvent byte = 0x12

	// MessageTypeClientDimensions carries ClientDimensions.
	// Client→host.
	MessageTypeClientDimensions byte = 0x13

	// MessageTypeVideoControl carries a VideoControl. Client→host.
	MessageTypeVideoControl byte = 0x14

	// MessageTypeSequenceNumber carries a SequenceNumber acknowledging
	// the latest video frame the client rendered. Client→host.
	MessageTypeSequenceNumber byte = 0x15
)

// messageHeaderLength is the fixed size of a message header.
const messageHeaderLength = 6

// maxPayloadLength bounds both the framed payload and any decompressed
// payload. Large clipboard contents are the only messages that approach
// it.
const maxPayloadLength = 16 * 1024 * 1024

// ErrPayloadTooLarge is returned when a frame declares a payload longer
// than the protocol allows.
var ErrPayloadTooLarge = errors.New("payload exceeds maximum length")

// Message is a single framed wire message. Payload holds the payload
// exactly as transmitted (compressed when Compression is not
// CompressionNone).
type Message struct {
	Type        byte
	Compression Compression
	Payload     []byte
}

// WriteMessage writes a framed message to w.
func WriteMessage(w io.Writer, message Message) error {
	if len(message.Payload) > maxPayloadLength {
		return fmt.Errorf("write message type 0x%02x: %w", message.Type, ErrPayloadTooLarge)
	}
	var header [messageHeaderLength]byte
	header[0] = message.Type
	header[1] = byte(message.Compression)
	binary.BigEndian.PutUint32(header[2:6], uint32(len(message.Payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write message header: %w", err)
	}
	if len(message.Payload) > 0 {
		if _, err := w.Write(message.Payload); err != nil {
			return fmt.Errorf("write message payload: %w", err)
		}
	}
	return nil
}

// ReadMessage reads one framed message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var header [messageHeaderLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Message{}, fmt.Errorf("read message header: %w", err)
	}
	payloadLength := binary.BigEndian.Uint32(header[2:6])
	if payloadLength > maxPayloadLength {
		return Message{}, fmt.Errorf("payload length %d: %w", payloadLength, ErrPayloadTooLarge)
	}
	payload := make([]byte, payloadLength)
	if payloadLength > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Message{}, fmt.Errorf("read message payload: %w", err)
		}
	}
	return Message{
		Type:        header[0],
		Compression: Compression(header[1]),
		Payload:     payload,
	}, nil
}

// Encoder builds messages from payload values. The zero Encoder never
// compresses.
type Encoder struct {
	// Compression is applied to payloads of at least Threshold bytes.
	Compression Compression

	// Threshold is the encoded payload size below which compression is
	// not attempted. Zero means every payload is a candidate.
	Threshold int
}

// Encode marshals value as the payload of a message of the given type,
// compressing it when configured and worthwhile.
func (encoder Encoder) Encode(messageType byte, value any) (Message, error) {
	payload, err := codec.Marshal(value)
	if err != nil {
		return Message{}, fmt.Errorf("encode message type 0x%02x: %w", messageType, err)
	}
	message := Message{Type: messageType, Payload: payload}
	if encoder.Compression == CompressionNone || len(payload) < encoder.Threshold {
		return message, nil
	}
	compressed, err := compressPayload(payload, encoder.Compression)
	if errors.Is(err, errIncompressible) {
		return message, nil
	}
	if err != nil {
		return Message{}, err
	}
	message.Compression = encoder.Compression
	message.Payload = compressed
	return message, nil
}

// Decode unmarshals the message payload into value, decompressing first
// when the message is compressed.
func (message Message) Decode(value any) error {
	payload, err := decompressPayload(message.Payload, message.Compression)
	if err != nil {
		return fmt.Errorf("decode message type 0x%02x: %w", message.Type, err)
	}
	if err := codec.Unmarshal(payload, value); err != nil {
		return fmt.Errorf("decode message type 0x%02x: %w", message.Type, err)
	}
	return nil
}

// MessageTypeName returns a readable name for a message type, for logs.
func MessageTypeName(messageType byte) string {
	switch messageType {
	case MessageTypeChallenge:
		return "challenge"
	case MessageTypeHello:
		return "hello"
	case MessageTypeAuthResult:
		return "auth_result"
	case MessageTypeKeyEvent:
		return "key_event"
	case MessageTypeMouseEvent:
		return "mouse_event"
	case MessageTypeClipboardEvent:
		return "clipboard_event"
	case MessageTypeClientDimensions:
		return "client_dimensions"
	case MessageTypeVideoControl:
		return "video_control"
	case MessageTypeSequenceNumber:
		return "sequence_number"
	default:
		return fmt.Sprintf("unknown(0x%02x)", messageType)
	}
}
