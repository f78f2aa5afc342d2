// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"log/slog"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// LogObserver is a StatusObserver that writes each event to a logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver returns a LogObserver writing to logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnAccessDenied(clientID string) {
	o.logger.Warn("access denied", "client", clientID)
}

func (o *LogObserver) OnClientAuthenticated(clientID string) {
	o.logger.Info("client authenticated", "client", clientID)
}

func (o *LogObserver) OnClientConnected(clientID string) {
	o.logger.Info("client connected", "client", clientID)
}

func (o *LogObserver) OnClientDisconnected(clientID string) {
	o.logger.Info("client disconnected", "client", clientID)
}

func (o *LogObserver) OnClientRouteChange(clientID, channelName string, route protocol.TransportRoute) {
	o.logger.Info("client route",
		"client", clientID,
		"channel", channelName,
		"type", route.Type.String(),
		"remote_address", route.RemoteAddress,
		"local_address", route.LocalAddress,
	)
}

func (o *LogObserver) OnShutdown() {
	o.logger.Info("host shut down")
}
