// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/bureau-foundation/remotedesk/clientconn"
	"github.com/bureau-foundation/remotedesk/executor"
	"github.com/bureau-foundation/remotedesk/host"
	"github.com/bureau-foundation/remotedesk/lib/config"
	"github.com/bureau-foundation/remotedesk/lib/sequence"
	"github.com/bureau-foundation/remotedesk/protocol"
	"github.com/bureau-foundation/remotedesk/transport"
)

// daemon holds everything one host process runs. The host and every
// client connection live on runner.
type daemon struct {
	logger           *slog.Logger
	runner           *sequence.Runner
	host             *host.Host
	clipboard        *executor.LocalClipboard
	listener         transport.Listener
	connectionConfig clientconn.Config

	closers []io.Closer
}

func newDaemon(cfg *config.Config, logger *slog.Logger) (*daemon, error) {
	authorizedKeys, err := clientconn.LoadAuthorizedKeys(cfg.Host.AuthorizedKeys)
	if err != nil {
		return nil, err
	}
	if authorizedKeys.Len() == 0 {
		logger.Warn("authorized keys file lists no ssh-ed25519 keys; every client will be refused",
			"path", cfg.Host.AuthorizedKeys)
	}
	compression, err := protocol.ParseCompression(cfg.Wire.Compression)
	if err != nil {
		return nil, err
	}

	d := &daemon{
		logger: logger,
		runner: sequence.NewRunner(0),
		connectionConfig: clientconn.Config{
			HostID:           cfg.Host.ID,
			Authenticator:    authorizedKeys,
			Encoder:          protocol.Encoder{Compression: compression, Threshold: cfg.Wire.CompressThreshold},
			HandshakeTimeout: cfg.Wire.HandshakeTimeoutDuration(),
			Logger:           logger,
		},
	}

	input, err := d.newInputSink(cfg.Executor)
	if err != nil {
		d.close()
		return nil, err
	}
	input = executor.NewSecureAttention(input, func() {
		logger.Warn("client sent the secure attention sequence")
	})

	// Host clipboard changes go to the connected client, on the runner.
	d.clipboard = executor.NewLocalClipboard(func(event protocol.ClipboardEvent) {
		d.runner.Post(func() { d.host.InjectClipboardEvent(event) })
	})

	var clipboardSink protocol.ClipboardStub = d.clipboard
	if cfg.Host.ClipboardFile != "" {
		fileClipboard, err := executor.NewFileClipboard(executor.FileClipboardConfig{
			Path:      cfg.Host.ClipboardFile,
			Clipboard: d.clipboard,
			Logger:    logger,
		})
		if err != nil {
			d.close()
			return nil, err
		}
		d.closers = append(d.closers, fileClipboard)
		clipboardSink = fileClipboard
	}

	d.host = host.New(host.Config{
		Runner:        d.runner,
		HostEventStub: executor.New(input, clipboardSink),
		Capturer:      host.NewStaticCapturer(protocol.Size{Width: cfg.Capture.Width, Height: cfg.Capture.Height}),
		Logger:        logger,
	})

	d.listener, err = newListener(cfg, logger)
	if err != nil {
		d.close()
		return nil, err
	}
	d.closers = append(d.closers, d.listener)
	return d, nil
}

func (d *daemon) newInputSink(cfg config.ExecutorConfig) (protocol.InputStub, error) {
	switch cfg.Kind {
	case config.ExecutorDBus:
		dbusExecutor, err := executor.DialDBus(executor.DBusConfig{
			SessionPath: cfg.SessionPath,
			StreamPath:  cfg.StreamPath,
			Logger:      d.logger,
		})
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, dbusExecutor)
		return dbusExecutor, nil
	case config.ExecutorLog:
		return executor.NewLogExecutor(d.logger), nil
	default:
		return nil, fmt.Errorf("unknown executor kind %q", cfg.Kind)
	}
}

func newListener(cfg *config.Config, logger *slog.Logger) (transport.Listener, error) {
	switch cfg.Host.Transport {
	case config.TransportTCP:
		listener, err := transport.NewTCPListener(cfg.Host.ListenAddress)
		if err != nil {
			return nil, fmt.Errorf("listening on %s: %w", cfg.Host.ListenAddress, err)
		}
		return listener, nil
	case config.TransportWebRTC:
		signaler, err := transport.NewDirectorySignaler(cfg.Host.SignalingDir)
		if err != nil {
			return nil, err
		}
		servers := make([]transport.ICEServer, 0, len(cfg.ICE.Servers))
		for _, server := range cfg.ICE.Servers {
			servers = append(servers, transport.ICEServer{
				URLs:       server.URLs,
				Username:   server.Username,
				Credential: server.Credential,
			})
		}
		return transport.NewWebRTCTransport(transport.WebRTCConfig{
			Signaler: signaler,
			PeerID:   cfg.Host.ID,
			ICE:      transport.NewICEConfig(servers),
			Logger:   logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Host.Transport)
	}
}

// serve runs until ctx is cancelled or the listener fails, then
// disconnects every client.
func (d *daemon) serve(ctx context.Context) error {
	runnerCtx, stopRunner := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRunner()
	go d.runner.Run(runnerCtx)

	if err := d.runner.Invoke(ctx, func() {
		d.host.AddStatusObserver(host.NewLogObserver(d.logger))
	}); err != nil {
		return err
	}

	serveErr := d.listener.Serve(ctx, func(conn net.Conn, route protocol.TransportRoute) {
		d.accept(ctx, conn, route)
	})

	if err := d.runner.Invoke(context.WithoutCancel(ctx), d.host.Shutdown); err != nil {
		d.logger.Warn("host shutdown did not run", "error", err)
	}
	if serveErr != nil {
		return fmt.Errorf("serving clients: %w", serveErr)
	}
	return nil
}

// accept hands an inbound connection to the host, on the runner.
func (d *daemon) accept(ctx context.Context, conn net.Conn, route protocol.TransportRoute) {
	connection := clientconn.New(conn, route, d.runner, d.connectionConfig)
	if !d.runner.Post(func() {
		if session := d.host.OnIncomingConnection(connection); session != nil {
			connection.Start(ctx)
		}
	}) {
		conn.Close()
	}
}

func (d *daemon) setDisableInputs(disable bool) {
	d.logger.Info("local takeover", "inputs_disabled", disable)
	d.runner.Post(func() { d.host.SetDisableInputs(disable) })
}

func (d *daemon) close() {
	for index := len(d.closers) - 1; index >= 0; index-- {
		if err := d.closers[index].Close(); err != nil {
			d.logger.Warn("closing resource failed", "error", err)
		}
	}
	d.closers = nil
}
