// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/remotedesk/lib/config"
	"github.com/bureau-foundation/remotedesk/lib/process"
	"github.com/bureau-foundation/remotedesk/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("remotedesk-host", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the host config file (default: $REMOTEDESK_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return fmt.Errorf("%w: %v", process.ErrUsage, err)
	}
	if showVersion {
		fmt.Printf("remotedesk-host %s\n", version.Full())
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument %q: %w", args[0], process.ErrUsage)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(cfg, logger)
	if err != nil {
		return err
	}
	defer d.close()

	takeover := make(chan os.Signal, 1)
	signal.Notify(takeover, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(takeover)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case received := <-takeover:
				d.setDisableInputs(received == syscall.SIGUSR1)
			}
		}
	}()

	logger.Info("remotedesk host running",
		"host", cfg.Host.ID,
		"transport", cfg.Host.Transport,
		"address", d.listener.Address(),
		"executor", cfg.Executor.Kind,
		"version", version.Info(),
	)
	return d.serve(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
