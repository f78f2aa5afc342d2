// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// ErrorCode is the reason a connection closed. OK means an orderly close.
type ErrorCode uint8

const (
	OK ErrorCode = iota
	PeerIsOffline
	SessionRejected
	IncompatibleProtocol
	AuthenticationFailed
	ChannelConnectionError
	SignalingError
	SignalingTimeout
	UnknownError
)

func (code ErrorCode) String() string {
	switch code {
	case OK:
		return "ok"
	case PeerIsOffline:
		return "peer_is_offline"
	case SessionRejected:
		return "session_rejected"
	case IncompatibleProtocol:
		return "incompatible_protocol"
	case AuthenticationFailed:
		return "authentication_failed"
	case ChannelConnectionError:
		return "channel_connection_error"
	case SignalingError:
		return "signaling_error"
	case SignalingTimeout:
		return "signaling_timeout"
	case UnknownError:
		return "unknown_error"
	default:
		return fmt.Sprintf("error_code(%d)", uint8(code))
	}
}
