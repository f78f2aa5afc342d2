// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "REMOTEDESK_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Transport names accepted by host.transport.
const (
	TransportTCP    = "tcp"
	TransportWebRTC = "webrtc"
)

// Executor kinds accepted by executor.kind.
const (
	ExecutorLog  = "log"
	ExecutorDBus = "dbus"
)

// Config is the host configuration.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	Host     HostConfig     `yaml:"host"`
	Capture  CaptureConfig  `yaml:"capture"`
	Wire     WireConfig     `yaml:"wire"`
	ICE      ICEConfig      `yaml:"ice"`
	Executor ExecutorConfig `yaml:"executor"`
	Logging  LoggingConfig  `yaml:"logging"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Host     *HostConfig     `yaml:"host,omitempty"`
	Wire     *WireConfig     `yaml:"wire,omitempty"`
	Executor *ExecutorConfig `yaml:"executor,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty"`
}

// HostConfig identifies the host and how clients reach it.
type HostConfig struct {
	// ID names the host in handshakes and WebRTC signaling, e.g.
	// "host/workstation".
	ID string `yaml:"id"`

	// Transport is "tcp" or "webrtc".
	Transport string `yaml:"transport"`

	// ListenAddress is the TCP address to listen on. Unused for WebRTC.
	ListenAddress string `yaml:"listen_address"`

	// SignalingDir is the directory WebRTC offers and answers are
	// exchanged through. Unused for TCP.
	SignalingDir string `yaml:"signaling_dir"`

	// AuthorizedKeys is an OpenSSH authorized_keys file listing the
	// ssh-ed25519 keys allowed to connect.
	AuthorizedKeys string `yaml:"authorized_keys"`

	// ClipboardFile, when set, mirrors the host clipboard to a text
	// file: client pastes are written to it and edits to it are sent
	// to the client. Empty leaves the host clipboard in memory only.
	ClipboardFile string `yaml:"clipboard_file"`
}

// CaptureConfig sets the size of the host screen that remote pointer
// positions are clamped to.
type CaptureConfig struct {
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`
}

// WireConfig tunes the client connection protocol.
type WireConfig struct {
	// Compression is "none", "lz4" or "zstd".
	Compression string `yaml:"compression"`

	// CompressThreshold is the payload size in bytes below which
	// compression is not attempted.
	CompressThreshold int `yaml:"compress_threshold"`

	// HandshakeTimeout bounds authentication, as a Go duration.
	// Default: 10s
	HandshakeTimeout string `yaml:"handshake_timeout"`
}

// ICEConfig lists STUN and TURN servers for the WebRTC transport.
type ICEConfig struct {
	Servers []ICEServerConfig `yaml:"servers"`
}

// ICEServerConfig is one STUN or TURN server.
type ICEServerConfig struct {
	URLs       []string `yaml:"urls"`
	Username   string   `yaml:"username,omitempty"`
	Credential string   `yaml:"credential,omitempty"`
}

// ExecutorConfig selects where injected input goes.
type ExecutorConfig struct {
	// Kind is "log" (log events only) or "dbus" (GNOME RemoteDesktop).
	Kind string `yaml:"kind"`

	// SessionPath is the RemoteDesktop session object path. Required
	// for dbus.
	SessionPath string `yaml:"session_path"`

	// StreamPath is the ScreenCast stream object path. Required for
	// dbus.
	StreamPath string `yaml:"stream_path"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	return &Config{
		Environment: Development,
		Host: HostConfig{
			Transport:      TransportTCP,
			ListenAddress:  "127.0.0.1:7891",
			SignalingDir:   "${XDG_RUNTIME_DIR:-/tmp}/remotedesk/signals",
			AuthorizedKeys: "${HOME}/.config/remotedesk/authorized_keys",
		},
		Capture: CaptureConfig{Width: 1920, Height: 1080},
		Wire: WireConfig{
			Compression:       "zstd",
			CompressThreshold: 1024,
			HandshakeTimeout:  "10s",
		},
		Executor: ExecutorConfig{Kind: ExecutorLog},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load loads configuration from the REMOTEDESK_CONFIG environment
// variable. There are no fallbacks: if it is not set, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your host config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values; the only expansion performed is
// ${VAR} and ${VAR:-default} in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: structured logs for collection.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Host != nil {
		setIfNotEmpty(&c.Host.ID, overrides.Host.ID)
		setIfNotEmpty(&c.Host.Transport, overrides.Host.Transport)
		setIfNotEmpty(&c.Host.ListenAddress, overrides.Host.ListenAddress)
		setIfNotEmpty(&c.Host.SignalingDir, overrides.Host.SignalingDir)
		setIfNotEmpty(&c.Host.AuthorizedKeys, overrides.Host.AuthorizedKeys)
		setIfNotEmpty(&c.Host.ClipboardFile, overrides.Host.ClipboardFile)
	}

	if overrides.Wire != nil {
		setIfNotEmpty(&c.Wire.Compression, overrides.Wire.Compression)
		setIfNotEmpty(&c.Wire.HandshakeTimeout, overrides.Wire.HandshakeTimeout)
		if overrides.Wire.CompressThreshold != 0 {
			c.Wire.CompressThreshold = overrides.Wire.CompressThreshold
		}
	}

	if overrides.Executor != nil {
		setIfNotEmpty(&c.Executor.Kind, overrides.Executor.Kind)
		setIfNotEmpty(&c.Executor.SessionPath, overrides.Executor.SessionPath)
		setIfNotEmpty(&c.Executor.StreamPath, overrides.Executor.StreamPath)
	}

	if overrides.Logging != nil {
		setIfNotEmpty(&c.Logging.Level, overrides.Logging.Level)
		setIfNotEmpty(&c.Logging.Format, overrides.Logging.Format)
	}
}

func setIfNotEmpty(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":    os.Getenv("HOME"),
		"HOST_ID": c.Host.ID,
	}

	c.Host.AuthorizedKeys = expandVars(c.Host.AuthorizedKeys, vars)
	c.Host.SignalingDir = expandVars(c.Host.SignalingDir, vars)
	c.Host.ClipboardFile = expandVars(c.Host.ClipboardFile, vars)
	c.Executor.SessionPath = expandVars(c.Executor.SessionPath, vars)
	c.Executor.StreamPath = expandVars(c.Executor.StreamPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Provided vars
// take precedence over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Host.ID == "" {
		errs = append(errs, errors.New("host.id is required"))
	}
	switch c.Host.Transport {
	case TransportTCP:
		if c.Host.ListenAddress == "" {
			errs = append(errs, errors.New("host.listen_address is required for the tcp transport"))
		}
	case TransportWebRTC:
		if c.Host.SignalingDir == "" {
			errs = append(errs, errors.New("host.signaling_dir is required for the webrtc transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("host.transport must be one of: %v", []string{TransportTCP, TransportWebRTC}))
	}
	if c.Host.AuthorizedKeys == "" {
		errs = append(errs, errors.New("host.authorized_keys is required"))
	}

	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		errs = append(errs, fmt.Errorf("capture size must be positive, got %dx%d", c.Capture.Width, c.Capture.Height))
	}

	compressionValues := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressionValues, c.Wire.Compression) {
		errs = append(errs, fmt.Errorf("wire.compression must be one of: %v", compressionValues))
	}
	if c.Wire.CompressThreshold < 0 {
		errs = append(errs, errors.New("wire.compress_threshold must not be negative"))
	}
	if timeout, err := time.ParseDuration(c.Wire.HandshakeTimeout); err != nil {
		errs = append(errs, fmt.Errorf("wire.handshake_timeout: %w", err))
	} else if timeout <= 0 {
		errs = append(errs, errors.New("wire.handshake_timeout must be positive"))
	}

	for index, server := range c.ICE.Servers {
		if len(server.URLs) == 0 {
			errs = append(errs, fmt.Errorf("ice.servers[%d] has no urls", index))
		}
	}

	switch c.Executor.Kind {
	case ExecutorLog:
	case ExecutorDBus:
		if c.Executor.SessionPath == "" || c.Executor.StreamPath == "" {
			errs = append(errs, errors.New("executor.session_path and executor.stream_path are required for the dbus executor"))
		}
	default:
		errs = append(errs, fmt.Errorf("executor.kind must be one of: %v", []string{ExecutorLog, ExecutorDBus}))
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", []string{"text", "json"}))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HandshakeTimeoutDuration returns wire.handshake_timeout as a duration. Call
// only on a validated config.
func (w WireConfig) HandshakeTimeoutDuration() time.Duration {
	timeout, _ := time.ParseDuration(w.HandshakeTimeout)
	return timeout
}

// NewLogger builds the process logger writing to output. Call only on a
// validated config.
func (l LoggingConfig) NewLogger(output io.Writer) *slog.Logger {
	level, _ := parseLevel(l.Level)
	options := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(output, options))
	}
	return slog.New(slog.NewTextHandler(output, options))
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
