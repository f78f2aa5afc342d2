// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/remotedesk/clientconn"
	"github.com/bureau-foundation/remotedesk/lib/netutil"
	"github.com/bureau-foundation/remotedesk/lib/process"
	"github.com/bureau-foundation/remotedesk/lib/version"
	"github.com/bureau-foundation/remotedesk/protocol"
	"github.com/bureau-foundation/remotedesk/transport"
)

type options struct {
	address      string
	transport    string
	signalingDir string
	hostID       string
	name         string
	identity     string
	scriptPath   string
	compression  string
	linger       time.Duration
	timeout      time.Duration
}

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var opts options
	var showVersion bool

	hostname, _ := os.Hostname()
	flagSet := pflag.NewFlagSet("remotedesk-client", pflag.ContinueOnError)
	flagSet.StringVar(&opts.address, "host", "", "host address: host:port for tcp, the host id for webrtc (required)")
	flagSet.StringVar(&opts.transport, "transport", "tcp", "transport to dial: tcp or webrtc")
	flagSet.StringVar(&opts.signalingDir, "signaling-dir", "", "directory shared with the host for WebRTC signaling")
	flagSet.StringVar(&opts.hostID, "host-id", "", "expected host id; the handshake fails if the host reports another")
	flagSet.StringVar(&opts.name, "name", "client/"+hostname, "name reported to the host")
	flagSet.StringVarP(&opts.identity, "identity", "i", "", "OpenSSH ed25519 private key file (required)")
	flagSet.StringVar(&opts.scriptPath, "script", "", "YAML event script to replay")
	flagSet.StringVar(&opts.compression, "compression", "none", "payload compression: none, lz4 or zstd")
	flagSet.DurationVar(&opts.linger, "linger", 0, "how long to keep listening for host clipboard after the script")
	flagSet.DurationVar(&opts.timeout, "timeout", 30*time.Second, "bound on connecting and authenticating")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return fmt.Errorf("%w: %v", process.ErrUsage, err)
	}
	if showVersion {
		fmt.Printf("remotedesk-client %s\n", version.Full())
		return nil
	}
	if opts.address == "" || opts.identity == "" {
		return fmt.Errorf("--host and --identity are required: %w", process.ErrUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runClient(ctx, opts, os.Stdout)
}

func runClient(ctx context.Context, opts options, output io.Writer) error {
	privateKey, err := clientconn.LoadPrivateKey(opts.identity)
	if err != nil {
		return err
	}
	compression, err := protocol.ParseCompression(opts.compression)
	if err != nil {
		return fmt.Errorf("%w: %v", process.ErrUsage, err)
	}
	var eventScript *script
	if opts.scriptPath != "" {
		if eventScript, err = loadScript(opts.scriptPath); err != nil {
			return err
		}
	}

	dialer, cleanup, err := newDialer(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	connectCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	conn, err := dialer.DialContext(connectCtx, opts.address)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", opts.address, err)
	}
	client, err := clientconn.Handshake(connectCtx, conn, clientconn.ClientConfig{
		Name:             opts.name,
		PrivateKey:       privateKey,
		HostID:           opts.hostID,
		Encoder:          protocol.Encoder{Compression: compression, Threshold: 1024},
		HandshakeTimeout: opts.timeout,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	fmt.Fprintf(output, "authenticated as %s\n", client.Identity())

	received := make(chan error, 1)
	go func() { received <- printClipboard(client, output) }()

	if eventScript != nil {
		if err := eventScript.run(ctx, client); err != nil {
			return err
		}
	}

	timer := time.NewTimer(opts.linger)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	case err := <-received:
		if err != nil && !netutil.IsExpectedCloseError(err) {
			return fmt.Errorf("host connection: %w", err)
		}
		fmt.Fprintln(output, "host closed the connection")
		return nil
	}
}

// printClipboard writes every clipboard value the host sends until the
// connection ends.
func printClipboard(client *clientconn.Client, output io.Writer) error {
	for {
		event, err := client.ReceiveClipboard()
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "clipboard (%s): %s\n", event.MimeType, event.Data)
	}
}

func newDialer(opts options) (transport.Dialer, func(), error) {
	switch opts.transport {
	case "tcp":
		return &transport.TCPDialer{Timeout: opts.timeout}, func() {}, nil
	case "webrtc":
		if opts.signalingDir == "" {
			return nil, nil, fmt.Errorf("--signaling-dir is required for webrtc: %w", process.ErrUsage)
		}
		signaler, err := transport.NewDirectorySignaler(opts.signalingDir)
		if err != nil {
			return nil, nil, err
		}
		webrtcTransport := transport.NewWebRTCTransport(transport.WebRTCConfig{
			Signaler: signaler,
			PeerID:   opts.name,
		})
		return webrtcTransport, func() { webrtcTransport.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q: %w", opts.transport, process.ErrUsage)
	}
}

var _ eventSender = (*clientconn.Client)(nil)
